// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/marcosschroh/yoyo-database-migrations/cmd/flags"
	"github.com/marcosschroh/yoyo-database-migrations/internal/connstr"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/engine"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/logger"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
)

// dialectFor splits a "<scheme>://<rest>" connection string into the
// Dialect it names and the driver-native DSN to pass to it.
func dialectFor(url string) (db.Dialect, string, error) {
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return nil, "", errUnknownScheme
	}

	switch scheme {
	case "sqlite", "sqlite3":
		return db.SQLiteDialect{}, rest, nil
	case "postgres", "postgresql":
		return db.PostgresDialect{}, url, nil
	case "mysql":
		return db.MySQLDialect{}, rest, nil
	case "oracle":
		return db.OracleDialect{}, rest, nil
	case "odbc":
		return db.ODBCDialect{}, rest, nil
	default:
		return nil, "", errUnknownScheme
	}
}

// addSearchPath appends a search_path option to a postgres:// connection
// string so the engine's queries and the migrations it runs resolve
// against the requested schema without needing a SET search_path round
// trip after connect.
func addSearchPath(url, schema string) (string, error) {
	return connstr.AppendSearchPathOption(url, schema)
}

// openEngine connects to the database named by --database, loads the
// migrations under --sources, and returns a ready-to-drive Engine along
// with a cleanup function the caller must defer.
func openEngine(ctx context.Context) (*engine.Engine, func() error, error) {
	url := flags.DSN()
	if url == "" {
		return nil, nil, errNoDatabaseURL
	}

	dialect, dsn, err := dialectFor(url)
	if err != nil {
		return nil, nil, err
	}

	if _, ok := dialect.(db.PostgresDialect); ok && flags.Schema() != "" {
		dsn, err = addSearchPath(dsn, flags.Schema())
		if err != nil {
			return nil, nil, err
		}
	}

	backend, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.Open(backend, flags.Sources(), nil, logger.New(flags.Verbose()))
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	if prefix := flags.MigrationTable(); prefix != "" {
		eng.State = &state.State{
			Backend: backend,
			Tables: state.Tables{
				Migration: prefix,
				Log:       prefix + "_log",
				Version:   prefix + "_version",
				Lock:      prefix + "_lock",
			},
		}
	}
	eng.State.BinaryVersion = Version

	engine.LockTimeout = time.Duration(flags.LockTimeoutSeconds()) * time.Second

	return eng, backend.Close, nil
}

// warnIfSchemaNewer logs a warning when the bookkeeping schema was last
// stamped by a newer yoyo binary than the one currently running, since that
// binary may not understand everything the newer one wrote.
func warnIfSchemaNewer(ctx context.Context, eng *engine.Engine) {
	compat, err := eng.State.VersionCompatibility(ctx)
	if err != nil || compat != state.CompatSchemaNewer {
		return
	}
	eng.Logger.Warn("bookkeeping schema was stamped by a newer yoyo release than this binary")
}
