// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

func unmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unmark",
		Short: "Record migrations as not applied without rolling them back",
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

			unmarked, err := eng.Unmark(ctx, targets)
			if err != nil {
				return err
			}

			for _, id := range unmarked {
				fmt.Fprintln(c.OutOrStdout(), "unmarked:", id)
			}
			return nil
		},
	}
	flags.RevisionFlags(cmd)
	return cmd
}
