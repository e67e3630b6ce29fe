// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func breakLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "break-lock",
		Short: "Forcibly clear the migration lock",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			eng, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := eng.BreakLock(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "lock cleared")
			return nil
		},
	}
}
