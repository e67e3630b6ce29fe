// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/sijms/go-ora/v2"
)

// OracleDialect targets Oracle through sijms/go-ora, a pure-Go driver that
// speaks TNS directly so the engine needs no Oracle Instant Client.
type OracleDialect struct{}

func (OracleDialect) Name() string { return "oracle" }

func (OracleDialect) Open(_ context.Context, dsn string) (*sql.DB, error) {
	return sql.Open("oracle", dsn)
}

func (OracleDialect) InitConnection(context.Context, *sql.Conn) error { return nil }

func (OracleDialect) ParamStyle() ParamStyle { return ParamStyleNamed }

func (OracleDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(strings.ToUpper(s), `"`, `""`) + `"`
}

func (OracleDialect) ListTablesSQL() (string, map[string]any) {
	return `SELECT table_name FROM user_tables`, nil
}

func (OracleDialect) CreateTestTableSQL(quotedName string) string {
	return "CREATE TABLE " + quotedName + " (id NUMBER)"
}

func (OracleDialect) TextType() string    { return "VARCHAR2(4000)" }
func (OracleDialect) IntegerType() string { return "NUMBER" }
