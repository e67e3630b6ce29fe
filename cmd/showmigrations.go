// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func showMigrationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "showmigrations",
		Short: "List migrations and whether each is applied",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			eng, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := eng.Show(ctx)
			if err != nil {
				return err
			}

			for _, st := range statuses {
				mark := " "
				if st.Applied {
					mark = "x"
				}
				fmt.Fprintf(c.OutOrStdout(), "[%s] %s\n", mark, st.ID)
			}
			return nil
		},
	}
}
