package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/tuning"
)

// newRootCmd builds the whole command tree. Flag state lives in the tree,
// so every run gets its own.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blocks",
		Short: "blocks explores a procedural block city from the command line",
		Long: `blocks runs the subdivision engine locally: resolve seeds, list the blocks
visible in a viewport, show how a root grows to enclose it, and project blocks
to isometric faces.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("tuning", "", "path to tuning.yaml (default: built-in tuning)")
	rootCmd.AddCommand(newSeedCmd(), newQueryCmd(), newAscendCmd(), newProjectCmd())
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadTuning(cmd *cobra.Command) (tuning.Tuning, error) {
	path, _ := cmd.Flags().GetString("tuning")
	if strings.TrimSpace(path) == "" {
		return tuning.Defaults(), nil
	}
	return tuning.Load(path)
}

func rectFromSlice(name string, v []float64) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("--%s needs 4 numbers x0,y0,x1,y1, got %d", name, len(v))
	}
	r := geom.R(v[0], v[1], v[2], v[3])
	if !r.Valid() || r.Width() <= 0 || r.Height() <= 0 {
		return geom.Rect{}, fmt.Errorf("--%s must have positive width and height", name)
	}
	return r, nil
}
