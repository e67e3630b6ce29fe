// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect targets MySQL/MariaDB through go-sql-driver/mysql.
//
// quote_identifier historically checked the server's ANSI_QUOTES sql_mode
// and only fell back to backtick-quoting when it was off; that check lived
// on the base backend and was never reached because MySQLBackend overrode
// quote_identifier directly. The override is kept here unconditionally, so
// there is no sql_mode probe to port: see DESIGN.md.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) Open(_ context.Context, dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}

func (MySQLDialect) InitConnection(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, "SET sql_mode = 'ANSI'")
	return err
}

func (MySQLDialect) ParamStyle() ParamStyle { return ParamStyleQmark }

func (MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func (MySQLDialect) ListTablesSQL() (string, map[string]any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = database()`, nil
}

func (MySQLDialect) CreateTestTableSQL(quotedName string) string {
	return "CREATE TABLE " + quotedName + " (id INT) ENGINE=InnoDB"
}

func (MySQLDialect) TextType() string    { return "TEXT" }
func (MySQLDialect) IntegerType() string { return "INT" }
