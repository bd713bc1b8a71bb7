package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"blockscape.ai/internal/seedtext"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [text]",
		Short: "Resolve seed text to the 64-bit seed the engine uses",
		Long: `Integer literals (decimal, 0x, 0o, 0b) and bare hex strings are used as is,
wrapping modulo 2^64. Any other text is hashed. Without an argument the
seed comes from the clock.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			seed, name := seedtext.Resolve(text, len(args) > 0, time.Now)
			fmt.Fprintf(cmd.OutOrStdout(), "seed=%d hex=%s", uint64(seed), seedtext.Format(seed))
			if name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " name=%q", name)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
