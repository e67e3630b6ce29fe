// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

const newMigrationTemplate = `-- depends:
-- transactional: true

-- +migrate Up


-- +migrate Down

`

func newMigrationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Scaffold a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102150405"), args[0])
			path := filepath.Join(flags.Sources(), id+".sql")

			if err := os.MkdirAll(flags.Sources(), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("cmd: %s already exists", path)
			}

			if err := os.WriteFile(path, []byte(newMigrationTemplate), 0o644); err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), "created:", path)
			return nil
		},
	}
}
