// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/alexbrainman/odbc"
)

// ODBCDialect targets any database reachable through an installed ODBC
// driver manager. Identifier quoting and the table listing query assume an
// ANSI-SQL-compliant driver; a genuinely exotic target is expected to be
// reached through one of the dedicated dialects instead.
type ODBCDialect struct{}

func (ODBCDialect) Name() string { return "odbc" }

func (ODBCDialect) Open(_ context.Context, dsn string) (*sql.DB, error) {
	return sql.Open("odbc", dsn)
}

func (ODBCDialect) InitConnection(context.Context, *sql.Conn) error { return nil }

func (ODBCDialect) ParamStyle() ParamStyle { return ParamStyleQmark }

func (ODBCDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (ODBCDialect) ListTablesSQL() (string, map[string]any) {
	return `SELECT table_name FROM information_schema.tables`, nil
}

func (ODBCDialect) CreateTestTableSQL(quotedName string) string {
	return "CREATE TABLE " + quotedName + " (id INTEGER)"
}

func (ODBCDialect) TextType() string    { return "VARCHAR(4000)" }
func (ODBCDialect) IntegerType() string { return "INTEGER" }
