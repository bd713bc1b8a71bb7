package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/scene"
	"blockscape.ai/internal/seedtext"
)

func newQueryCmd() *cobra.Command {
	var (
		seedText string
		viewport []float64
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List the blocks visible in a viewport",
		Long: `Runs one query from the unit-square root of --seed. Prints a summary line,
or with --json one block per line in emission order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tune, err := loadTuning(cmd)
			if err != nil {
				return err
			}
			vp, err := rectFromSlice("viewport", viewport)
			if err != nil {
				return err
			}
			seed, _ := seedtext.Resolve(seedText, cmd.Flags().Changed("seed"), time.Now)
			root := region.Region{Seed: seed, Bounds: geom.UnitSquare}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			d := scene.NewDigester()
			res, err := region.FindBlocks(tune.EngineConfig(), root, vp, func(b region.Block) error {
				d.Add(b)
				if jsonOut {
					return enc.Encode(b)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !jsonOut {
				fmt.Fprintf(out, "seed=%d blocks=%d nodes=%d max_depth=%d ascent_steps=%d root_seed=%d digest=%s\n",
					uint64(seed), res.Blocks, res.Nodes, res.MaxDepth, res.AscentSteps, uint64(res.Root.Seed), d.Sum())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seedText, "seed", "", "seed text (default: clock)")
	cmd.Flags().Float64SliceVar(&viewport, "viewport", []float64{0, 0, 1, 1}, "viewport x0,y0,x1,y1")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print blocks as JSON lines")
	return cmd
}
