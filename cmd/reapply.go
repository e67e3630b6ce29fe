// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

func reapplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reapply",
		Short: "Roll back then reapply migrations",
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

			reapplied, err := eng.Reapply(ctx, targets, flags.Force())
			if err != nil {
				return err
			}

			for _, id := range reapplied {
				fmt.Fprintln(c.OutOrStdout(), "reapplied:", id)
			}
			return nil
		},
	}
	flags.RevisionFlags(cmd)
	flags.BatchFlag(cmd)
	return cmd
}
