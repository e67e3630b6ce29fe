// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

func rollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back applied migrations",
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

			rolledBack, err := eng.Rollback(ctx, targets, flags.Force())
			if err != nil {
				return err
			}

			for _, id := range rolledBack {
				fmt.Fprintln(c.OutOrStdout(), "rolled back:", id)
			}
			return nil
		},
	}
	flags.RevisionFlags(cmd)
	flags.BatchFlag(cmd)
	return cmd
}
