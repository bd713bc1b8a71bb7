package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"blockscape.ai/internal/gen/iso"
	"blockscape.ai/internal/gen/region"
)

func newProjectCmd() *cobra.Command {
	var (
		rect   []float64
		height float64
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project one block to its isometric faces",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rectFromSlice("rect", rect)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(iso.ProjectBlock(region.Block{Rect: r, Height: height}))
		},
	}
	cmd.Flags().Float64SliceVar(&rect, "rect", []float64{0, 0, 1, 1}, "block footprint x0,y0,x1,y1")
	cmd.Flags().Float64Var(&height, "height", 0, "block height")
	return cmd
}
