// SPDX-License-Identifier: Apache-2.0

package step_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

func openSQLiteBackend(t *testing.T) *db.Backend {
	t.Helper()
	backend, err := db.Open(context.Background(), db.SQLiteDialect{}, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestAtomicApplyAndRollback(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	create := step.NewAtomic(step.SQL(`CREATE TABLE widgets (id INTEGER)`), step.SQL(`DROP TABLE widgets`))
	require.NoError(t, create.Apply(ctx, backend, false))

	tables, err := backend.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "widgets")

	require.NoError(t, create.Rollback(ctx, backend, false))
	tables, err = backend.ListTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "widgets")
}

func TestAtomicRollbackNilIsNoop(t *testing.T) {
	backend := openSQLiteBackend(t)
	a := step.NewAtomic(step.SQL(`SELECT 1`), nil)
	assert.NoError(t, a.Rollback(context.Background(), backend, false))
}

func TestAtomicForceSwallowsError(t *testing.T) {
	backend := openSQLiteBackend(t)
	bad := step.NewAtomic(step.SQL(`SELECT * FROM does_not_exist`), nil)
	assert.Error(t, bad.Apply(context.Background(), backend, false))
	assert.NoError(t, bad.Apply(context.Background(), backend, true))
}

func TestConnFuncDirective(t *testing.T) {
	backend := openSQLiteBackend(t)
	called := false
	a := step.NewAtomic(step.ConnFunc(func(ctx context.Context, conn *sql.Conn) error {
		called = true
		_, err := conn.ExecContext(ctx, "CREATE TABLE marker (id INTEGER)")
		return err
	}), nil)
	require.NoError(t, a.Apply(context.Background(), backend, false))
	assert.True(t, called)
}

func TestGroupRollbackReappliesForward(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	var order []int
	mk := func(id int) *step.Atomic {
		return step.NewAtomic(step.ConnFunc(func(ctx context.Context, conn *sql.Conn) error {
			order = append(order, id)
			return nil
		}), nil)
	}

	g := &step.Group{Children: []step.Step{mk(1), mk(2), mk(3)}}
	require.NoError(t, g.Rollback(ctx, backend, false))

	// Group.Rollback re-invokes Apply on children in forward order, it does
	// not reverse them or call Rollback.
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTransactionalWrapperRollsBackOnError(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	_, err := backend.Exec(ctx, "CREATE TABLE t (id INTEGER)", nil)
	require.NoError(t, err)

	child := step.NewAtomic(step.SQL(`INSERT INTO t (id) VALUES (1)`), nil)
	bad := step.NewAtomic(step.SQL(`SELECT * FROM nope`), nil)
	grouped := &step.Group{Children: []step.Step{child, bad}}

	w := &step.TransactionalWrapper{Child: grouped, Policy: step.ErrorPolicyNone}
	err = w.Apply(ctx, backend, false)
	assert.Error(t, err)

	rows, qerr := backend.Execute(ctx, "SELECT id FROM t", nil)
	require.NoError(t, qerr)
	defer rows.Close()
	assert.False(t, rows.Next(), "insert should have been rolled back with the rest of the transaction")
}

func TestTransactionalWrapperPolicySwallowsError(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	bad := step.NewAtomic(step.SQL(`SELECT * FROM nope`), nil)
	w := &step.TransactionalWrapper{Child: bad, Policy: step.ErrorPolicyApply}
	assert.NoError(t, w.Apply(ctx, backend, false))
}

func TestNonTransactionalWrapperPropagatesError(t *testing.T) {
	backend := openSQLiteBackend(t)
	bad := step.NewAtomic(step.SQL(`SELECT * FROM nope`), nil)
	w := &step.NonTransactionalWrapper{Child: bad, Policy: step.ErrorPolicyNone}
	assert.Error(t, w.Apply(context.Background(), backend, false))
}

func TestAtomicApplyDumpsRowsToOutputSink(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	_, err := backend.Exec(ctx, "CREATE TABLE widgets (id INTEGER, name TEXT)", nil)
	require.NoError(t, err)
	_, err = backend.Exec(ctx, "INSERT INTO widgets (id, name) VALUES (1, 'cog')", nil)
	require.NoError(t, err)
	_, err = backend.Exec(ctx, "INSERT INTO widgets (id, name) VALUES (2, 'sprocket')", nil)
	require.NoError(t, err)

	var out bytes.Buffer
	backend.SetOutput(&out)

	query := step.NewAtomic(step.SQL(`SELECT id, name FROM widgets ORDER BY id`), nil)
	require.NoError(t, query.Apply(ctx, backend, false))

	dump := out.String()
	assert.Contains(t, dump, "id")
	assert.Contains(t, dump, "name")
	assert.Contains(t, dump, "cog")
	assert.Contains(t, dump, "sprocket")
	assert.Contains(t, dump, "(2 rows)")
}

func TestAtomicApplyDumpsSingularRowFooter(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	var out bytes.Buffer
	backend.SetOutput(&out)

	query := step.NewAtomic(step.SQL(`SELECT 1 AS n`), nil)
	require.NoError(t, query.Apply(ctx, backend, false))

	assert.Contains(t, out.String(), "(1 row)")
	assert.NotContains(t, out.String(), "(1 rows)")
}
