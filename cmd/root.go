// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
)

// Version is set at build time.
var Version = "development"

func init() {
	viper.SetEnvPrefix("YOYO")
	viper.AutomaticEnv()

	flags.DatabaseFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "yoyo",
	Short:        "A database schema migration tool",
	SilenceUsage: true,
	Version:      Version,
}

// Execute runs the root command.
func Execute() error {
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(rollbackCmd())
	rootCmd.AddCommand(reapplyCmd())
	rootCmd.AddCommand(markCmd())
	rootCmd.AddCommand(unmarkCmd())
	rootCmd.AddCommand(showMigrationsCmd())
	rootCmd.AddCommand(breakLockCmd())
	rootCmd.AddCommand(newMigrationCmd())

	return rootCmd.Execute()
}
