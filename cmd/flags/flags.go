// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DSN is the connection string for the target database, prefixed with its
// scheme (sqlite://, postgres://, mysql://, oracle://, odbc://).
func DSN() string {
	return viper.GetString("DATABASE_URL")
}

// Sources is the directory migrations are loaded from.
func Sources() string {
	return viper.GetString("SOURCES")
}

// MigrationTable overrides the migration table's name; the log, version and
// lock tables are then named after it with "_log", "_version" and "_lock"
// appended. Empty means use the defaults ("_yoyo_migration", "_yoyo_log", ...).
func MigrationTable() string {
	return viper.GetString("MIGRATION_TABLE")
}

// LockTimeoutSeconds is how long to wait for the advisory lock.
func LockTimeoutSeconds() int {
	return viper.GetInt("LOCK_TIMEOUT")
}

// Verbose is passed to logger.New, where it gates the logger's per-step
// methods. The engine does not call those methods, so the flag adds no
// per-step output.
func Verbose() bool {
	return viper.GetBool("VERBOSE")
}

// Force continues past step errors instead of aborting.
func Force() bool {
	return viper.GetBool("FORCE")
}

// Batch reports whether --batch was given. No subcommand reads it, and none
// of them prompts for confirmation.
func Batch() bool {
	return viper.GetBool("BATCH")
}

// Schema, when set on a postgres:// connection, is appended to the
// connection string as a search_path option.
func Schema() string {
	return viper.GetString("SCHEMA")
}

// Revision, when set, targets a single migration (plus whatever its
// direction's ancestor/descendant expansion pulls in) instead of every
// migration.
func Revision() string {
	return viper.GetString("REVISION")
}

// DatabaseFlags registers the flags shared by every subcommand that talks
// to a database.
func DatabaseFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("database", "d", "", "Database connection string, e.g. sqlite:///app.db or postgres://user@host/db")
	cmd.PersistentFlags().StringP("sources", "s", "./migrations", "Directory to read migrations from")
	cmd.PersistentFlags().String("migration-table", "", "Override the migration table name (other bookkeeping tables get _log, _version, _lock suffixes)")
	cmd.PersistentFlags().Int("lock-timeout", 10, "Seconds to wait for the migration lock before giving up")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable the logger's per-step output (the engine emits no per-step events)")
	cmd.PersistentFlags().Bool("force", false, "Continue past step errors instead of aborting")
	cmd.PersistentFlags().String("schema", "", "Postgres schema to set as search_path (postgres:// only)")

	viper.BindPFlag("DATABASE_URL", cmd.PersistentFlags().Lookup("database"))
	viper.BindPFlag("SCHEMA", cmd.PersistentFlags().Lookup("schema"))
	viper.BindPFlag("SOURCES", cmd.PersistentFlags().Lookup("sources"))
	viper.BindPFlag("MIGRATION_TABLE", cmd.PersistentFlags().Lookup("migration-table"))
	viper.BindPFlag("LOCK_TIMEOUT", cmd.PersistentFlags().Lookup("lock-timeout"))
	viper.BindPFlag("VERBOSE", cmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("FORCE", cmd.PersistentFlags().Lookup("force"))
}

// RevisionFlags registers the --revision flag used by apply/rollback/mark/
// unmark/reapply to target a single migration instead of everything.
func RevisionFlags(cmd *cobra.Command) {
	cmd.Flags().String("revision", "", "Target a single migration id instead of all of them")
	viper.BindPFlag("REVISION", cmd.Flags().Lookup("revision"))
}

// BatchFlag registers --batch. The flag is accepted but has no effect, since
// no subcommand prompts for confirmation.
func BatchFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("batch", false, "Non-interactive mode (no subcommand prompts for confirmation)")
	viper.BindPFlag("BATCH", cmd.Flags().Lookup("batch"))
}
