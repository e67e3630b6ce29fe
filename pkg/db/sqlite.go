// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteDialect targets SQLite through ncruces/go-sqlite3, a pure-Go driver
// built on wazero so the engine never needs cgo to migrate a SQLite file.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) Open(_ context.Context, dsn string) (*sql.DB, error) {
	return sql.Open("sqlite3", dsn)
}

func (SQLiteDialect) InitConnection(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	return err
}

func (SQLiteDialect) ParamStyle() ParamStyle { return ParamStyleQmark }

func (SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (SQLiteDialect) ListTablesSQL() (string, map[string]any) {
	return `SELECT name FROM sqlite_master WHERE type = 'table'`, nil
}

func (SQLiteDialect) CreateTestTableSQL(quotedName string) string {
	return "CREATE TABLE " + quotedName + " (id INTEGER)"
}

func (SQLiteDialect) TextType() string    { return "TEXT" }
func (SQLiteDialect) IntegerType() string { return "INTEGER" }
