package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/seedtext"
)

func newAscendCmd() *cobra.Command {
	var (
		seedText string
		viewport []float64
	)
	cmd := &cobra.Command{
		Use:   "ascend",
		Short: "Show the parents synthesized to enclose a viewport",
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

			q, err := region.NewQuery(tune.EngineConfig())
			if err != nil {
				return err
			}
			eff, err := q.EnsureEncloses(root, vp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cur := root
			fmt.Fprintf(out, "0\tseed=%d\t%s\n", uint64(cur.Seed), fmtRect(cur.Bounds))
			for i := 1; cur != eff; i++ {
				p, ok := q.Caches().Ancestors[cur.Seed]
				if !ok {
					break
				}
				fmt.Fprintf(out, "%d\tseed=%d\t%s\n", i, uint64(p.Seed), fmtRect(p.Bounds))
				cur = p
			}
			fmt.Fprintf(out, "ascent_steps=%d\n", q.Stats().AscentSteps)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedText, "seed", "", "seed text (default: clock)")
	cmd.Flags().Float64SliceVar(&viewport, "viewport", []float64{-1, -1, 2, 2}, "viewport x0,y0,x1,y1")
	return cmd
}

func fmtRect(r geom.Rect) string {
	return fmt.Sprintf("[%g,%g]-[%g,%g]", r.Origin.X, r.Origin.Y, r.Extent.X, r.Extent.Y)
}
