// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresDialect targets PostgreSQL through lib/pq.
type PostgresDialect struct {
	// SearchPath, if set, is applied with SET search_path on connect and
	// after every rollback.
	SearchPath string
}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) Open(_ context.Context, dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

func (d PostgresDialect) InitConnection(ctx context.Context, conn *sql.Conn) error {
	if d.SearchPath == "" {
		return nil
	}
	_, err := conn.ExecContext(ctx, "SET search_path = "+d.SearchPath)
	return err
}

func (PostgresDialect) ParamStyle() ParamStyle { return ParamStyleDollar }

func (PostgresDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (PostgresDialect) ListTablesSQL() (string, map[string]any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema()`, nil
}

func (PostgresDialect) CreateTestTableSQL(quotedName string) string {
	return "CREATE TABLE " + quotedName + " (id serial)"
}

func (PostgresDialect) TextType() string    { return "TEXT" }
func (PostgresDialect) IntegerType() string { return "INTEGER" }
