// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			eng, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			warnIfSchemaNewer(ctx, eng)

			var targets []string
			if rev := flags.Revision(); rev != "" {
				targets = []string{rev}
			}

			applied, err := eng.Apply(ctx, targets, flags.Force())
			if err != nil {
				return err
			}

			for _, id := range applied {
				fmt.Fprintln(c.OutOrStdout(), "applied:", id)
			}
			return nil
		},
	}
	flags.RevisionFlags(cmd)
	flags.BatchFlag(cmd)
	return cmd
}
