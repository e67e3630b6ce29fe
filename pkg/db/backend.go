// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/cloudflare/backoff"
)

// connectRetryWindow bounds how long Open retries a newly-opened pool's
// first ping, to ride out a target database that's still starting up
// (common right after a container or managed instance is provisioned).
const connectRetryWindow = 10 * time.Second

// Dialect captures everything that differs between the databases a Backend
// can target: driver selection, identifier quoting, paramstyle, and the
// probe used to decide whether DDL participates in transactions.
type Dialect interface {
	// Name is the dialect's short identifier, e.g. "sqlite", "postgres".
	Name() string

	// Open establishes the driver-native connection pool for dsn.
	Open(ctx context.Context, dsn string) (*sql.DB, error)

	// InitConnection performs per-connection setup. Called after connect and
	// after every rollback, matching the source backend's documented hook.
	InitConnection(ctx context.Context, conn *sql.Conn) error

	// ParamStyle is the placeholder convention this dialect's driver expects.
	ParamStyle() ParamStyle

	// QuoteIdentifier quotes s for safe use as a table/column name.
	QuoteIdentifier(s string) string

	// ListTablesSQL returns the statement (and its named params) used to
	// enumerate tables visible to the current connection.
	ListTablesSQL() (sqlText string, params map[string]any)

	// CreateTestTableSQL returns the DDL used to probe transactional-DDL
	// support; quotedName is already dialect-quoted.
	CreateTestTableSQL(quotedName string) string

	// TextType and IntegerType name the column types used when the engine
	// creates its own bookkeeping tables, since SQL's portable type names
	// diverge across these five dialects (e.g. Oracle has no TEXT).
	TextType() string
	IntegerType() string
}

// Backend is a single live connection to a database, plus the dialect that
// knows how to talk to it. Unlike a pooled *sql.DB, a Backend holds exactly
// one *sql.Conn for its lifetime: BEGIN/COMMIT/SAVEPOINT are plain
// statements executed against that connection, not database/sql's own
// transaction type, so that migration steps that ask for the "live
// connection" see the same session the engine is managing.
type Backend struct {
	dialect Dialect

	pool *sql.DB
	conn *sql.Conn

	inTransaction bool
	savepointSeq  int64

	// locked records whether this process already holds the advisory lock,
	// making nested Lock() calls reentrant no-ops.
	locked bool

	// output is the configured sink a SQL directive's row dump is written
	// to, matching the source engine's "out" parameter (which defaults to
	// stdout but can be overridden by the caller).
	output io.Writer
}

// Open connects to dsn using dialect and performs the dialect's
// per-connection initialization.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Backend, error) {
	pool, err := dialect.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	if err := pingWithRetry(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: acquire connection: %w", err)
	}

	b := &Backend{dialect: dialect, pool: pool, conn: conn, output: os.Stdout}
	if err := dialect.InitConnection(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, fmt.Errorf("db: init connection: %w", err)
	}

	return b, nil
}

// pingWithRetry retries pool.PingContext with exponential backoff, giving a
// database that's still starting up a chance to become reachable instead of
// failing the connection on the first attempt.
func pingWithRetry(ctx context.Context, pool *sql.DB) error {
	b := backoff.New(connectRetryWindow, 100*time.Millisecond)
	deadline := time.Now().Add(connectRetryWindow)

	var lastErr error
	for {
		if err := pool.PingContext(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if time.Now().After(deadline) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

func (b *Backend) Dialect() Dialect { return b.dialect }

func (b *Backend) Conn() *sql.Conn { return b.conn }

func (b *Backend) InTransaction() bool { return b.inTransaction }

func (b *Backend) IsLocked() bool { return b.locked }

func (b *Backend) SetLocked(v bool) { b.locked = v }

// Output returns the sink a SQL directive's row dump is written to.
func (b *Backend) Output() io.Writer { return b.output }

// SetOutput overrides the sink a SQL directive's row dump is written to.
// Defaults to os.Stdout.
func (b *Backend) SetOutput(w io.Writer) { b.output = w }

func (b *Backend) Close() error {
	err1 := b.conn.Close()
	err2 := b.pool.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Execute runs a single statement with named parameters translated to the
// dialect's paramstyle, returning the resulting rows.
func (b *Backend) Execute(ctx context.Context, sqlText string, params map[string]any) (*sql.Rows, error) {
	translated, args, err := Translate(b.dialect.ParamStyle(), sqlText, params)
	if err != nil {
		return nil, err
	}
	rows, err := b.conn.QueryContext(ctx, translated, args...)
	if err != nil {
		return nil, wrapErr("execute", err)
	}
	return rows, nil
}

// Exec is Execute for statements whose result set is not needed.
func (b *Backend) Exec(ctx context.Context, sqlText string, params map[string]any) (sql.Result, error) {
	translated, args, err := Translate(b.dialect.ParamStyle(), sqlText, params)
	if err != nil {
		return nil, err
	}
	res, err := b.conn.ExecContext(ctx, translated, args...)
	if err != nil {
		return nil, wrapErr("exec", err)
	}
	return res, nil
}

func (b *Backend) Begin(ctx context.Context) error {
	b.inTransaction = true
	_, err := b.Exec(ctx, "BEGIN", nil)
	return err
}

func (b *Backend) Commit(ctx context.Context) error {
	_, err := b.Exec(ctx, "COMMIT", nil)
	b.inTransaction = false
	return err
}

// Rollback rolls back the current transaction and re-runs the dialect's
// per-connection init, matching the source backend's documented behavior
// (init_connection is called "after connect and after every rollback").
func (b *Backend) Rollback(ctx context.Context) error {
	_, err := b.Exec(ctx, "ROLLBACK", nil)
	b.inTransaction = false
	if err != nil {
		return err
	}
	return b.dialect.InitConnection(ctx, b.conn)
}

func (b *Backend) Savepoint(ctx context.Context, id string) error {
	_, err := b.Exec(ctx, fmt.Sprintf("SAVEPOINT %s", id), nil)
	return err
}

func (b *Backend) SavepointRelease(ctx context.Context, id string) error {
	_, err := b.Exec(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", id), nil)
	return err
}

func (b *Backend) SavepointRollback(ctx context.Context, id string) error {
	_, err := b.Exec(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", id), nil)
	return err
}

// NextSavepointID returns a fresh, process-unique savepoint name.
func (b *Backend) NextSavepointID() string {
	n := atomic.AddInt64(&b.savepointSeq, 1)
	return fmt.Sprintf("sp_%d", n)
}

func (b *Backend) QuoteIdentifier(s string) string { return b.dialect.QuoteIdentifier(s) }

// ListTables enumerates the tables visible to the current connection.
func (b *Backend) ListTables(ctx context.Context) ([]string, error) {
	sqlText, params := b.dialect.ListTablesSQL()
	rows, err := b.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// HasTransactionalDDL probes whether DDL statements participate in
// enclosing transactions. Advisory only: see the design notes on
// _check_transactional_ddl in DESIGN.md.
func (b *Backend) HasTransactionalDDL(ctx context.Context) (bool, error) {
	name := fmt.Sprintf("yoyo_tmp_%d", atomic.AddInt64(&b.savepointSeq, 1))
	quoted := b.QuoteIdentifier(name)

	tx, err := b.Transaction(ctx)
	if err != nil {
		return false, err
	}
	if _, err := b.Exec(ctx, b.dialect.CreateTestTableSQL(quoted), nil); err != nil {
		tx.MarkRollback()
		_ = tx.Close(ctx)
		return false, err
	}
	tx.MarkRollback()
	if err := tx.Close(ctx); err != nil {
		return false, err
	}

	// If the CREATE TABLE above really was undone by the rollback, this DROP
	// fails because the table no longer exists — that failure is the signal
	// that DDL is transactional here. If DROP succeeds, the table survived
	// the rollback, meaning DDL is NOT transactional on this backend.
	tx2, err := b.Transaction(ctx)
	if err != nil {
		return false, err
	}
	_, dropErr := b.Exec(ctx, fmt.Sprintf("DROP TABLE %s", quoted), nil)
	if dropErr != nil {
		tx2.MarkRollback()
		_ = tx2.Close(ctx)
		return true, nil
	}
	if err := tx2.Close(ctx); err != nil {
		return false, err
	}
	return false, nil
}
