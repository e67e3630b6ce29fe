// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

func markCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Record migrations as applied without running them",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			eng, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			var targets []string
			if rev := flags.Revision(); rev != "" {
				targets = []string{rev}
			}

			marked, err := eng.Mark(ctx, targets)
			if err != nil {
				return err
			}

			for _, id := range marked {
				fmt.Fprintln(c.OutOrStdout(), "marked:", id)
			}
			return nil
		},
	}
	flags.RevisionFlags(cmd)
	return cmd
}
