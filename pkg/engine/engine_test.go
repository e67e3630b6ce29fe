// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/engine"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

func newTestEngine(t *testing.T, migrations ...*migration.Migration) *engine.Engine {
	t.Helper()
	backend, err := db.Open(context.Background(), db.SQLiteDialect{}, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	collection, err := migration.NewCollection(migrations...)
	require.NoError(t, err)

	eng, err := engine.New(backend, collection, nil)
	require.NoError(t, err)
	return eng
}

func sqlMigration(id string, deps []string, upSQL, downSQL string) *migration.Migration {
	return migration.New(id, "", deps, true, false, func() ([]step.Step, error) {
		var rollback step.Directive
		if downSQL != "" {
			rollback = step.SQL(downSQL)
		}
		return []step.Step{step.NewAtomic(step.SQL(upSQL), rollback)}, nil
	})
}

func TestApplyRunsEverythingInOrder(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	m2 := sqlMigration("0002_add_index", []string{"0001_create_users"}, "CREATE INDEX idx_u ON users (id)", "DROP INDEX idx_u")

	eng := newTestEngine(t, m1, m2)
	ctx := context.Background()

	applied, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users", "0002_add_index"}, applied)

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.True(t, status[1].Applied)
}

func TestApplyIsIdempotent(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	eng := newTestEngine(t, m1)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)

	applied, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, applied, "already-applied migrations should be skipped")
}

func TestRollbackUndoesInReverseOrder(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	m2 := sqlMigration("0002_add_index", []string{"0001_create_users"}, "CREATE INDEX idx_u ON users (id)", "DROP INDEX idx_u")

	eng := newTestEngine(t, m1, m2)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)

	rolledBack, err := eng.Rollback(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_add_index", "0001_create_users"}, rolledBack)

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.False(t, s.Applied)
	}
}

func TestRollbackTargetPullsInDescendants(t *testing.T) {
	m1 := sqlMigration("0001_a", nil, "CREATE TABLE a (id INTEGER)", "DROP TABLE a")
	m2 := sqlMigration("0002_b", []string{"0001_a"}, "CREATE TABLE b (id INTEGER)", "DROP TABLE b")

	eng := newTestEngine(t, m1, m2)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)

	// Rolling back 0001_a must also roll back 0002_b, since it depends on it.
	rolledBack, err := eng.Rollback(ctx, []string{"0001_a"}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0001_a", "0002_b"}, rolledBack)
}

func TestMarkAndUnmarkSkipSteps(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	eng := newTestEngine(t, m1)
	ctx := context.Background()

	marked, err := eng.Mark(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users"}, marked)

	// The table must NOT exist: Mark only updates bookkeeping.
	tables, err := eng.Backend.ListTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "users")

	unmarked, err := eng.Unmark(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users"}, unmarked)

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	assert.False(t, status[0].Applied)
}

func TestReapplyRunsRollbackThenApply(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	eng := newTestEngine(t, m1)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)

	applied, err := eng.Reapply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users"}, applied)

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].Applied)
}

func TestApplyCompensatesNonTransactionalMigrationOnFailure(t *testing.T) {
	// SQLite reports transactional DDL, so to exercise the compensating
	// path the migration itself opts out of transactions, mirroring a
	// __transactional__: false migration against a backend whose DDL
	// auto-commits.
	m := migration.New("0001_widgets", "", nil, false, false, func() ([]step.Step, error) {
		return []step.Step{
			step.NewAtomic(step.SQL("CREATE TABLE widgets (id INTEGER)"), step.SQL("DROP TABLE widgets")),
			step.NewAtomic(step.SQL("INSERT INTO widgets (id) VALUES (1)"), step.SQL("DELETE FROM widgets WHERE id = 1")),
			step.NewAtomic(step.SQL("SELECT * FROM does_not_exist"), nil),
		}, nil
	})

	eng := newTestEngine(t, m)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.Error(t, err, "the failing third step must surface its error")

	tables, err := eng.Backend.ListTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "widgets", "the CREATE TABLE step should have been compensated by its rollback directive")

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.False(t, status[0].Applied, "a migration that failed partway through must not be recorded as applied")
}

func TestPostApplyHookRunsAfterApply(t *testing.T) {
	m1 := sqlMigration("0001_create_users", nil, "CREATE TABLE users (id INTEGER)", "DROP TABLE users")
	hook := migration.New("9999_reindex", "", nil, true, true, func() ([]step.Step, error) {
		return []step.Step{step.NewAtomic(step.SQL("CREATE TABLE hook_ran (id INTEGER)"), nil)}, nil
	})

	eng := newTestEngine(t, m1, hook)
	ctx := context.Background()

	_, err := eng.Apply(ctx, nil, false)
	require.NoError(t, err)

	tables, err := eng.Backend.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "hook_ran")

	status, err := eng.Show(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.NotEqual(t, "9999_reindex", s.ID, "post-apply hooks are never recorded in bookkeeping")
	}
}
