// SPDX-License-Identifier: Apache-2.0

package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
)

func openBackendOnly(t *testing.T) (*db.Backend, error) {
	t.Helper()
	return db.Open(context.Background(), db.SQLiteDialect{}, ":memory:")
}

func openState(t *testing.T) *state.State {
	t.Helper()
	backend, err := openBackendOnly(t)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	s := state.New(backend)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestEnsureSchemaCreatesTables(t *testing.T) {
	s := openState(t)
	tables, err := s.Backend.ListTables(context.Background())
	require.NoError(t, err)

	for _, want := range []string{s.Tables.Migration, s.Tables.Log, s.Tables.Version, s.Tables.Lock} {
		assert.Contains(t, tables, want)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := openState(t)
	assert.NoError(t, s.EnsureSchema(context.Background()))
}

func TestMarkAppliedAndIsApplied(t *testing.T) {
	s := openState(t)
	ctx := context.Background()

	applied, err := s.IsApplied(ctx, "deadbeef")
	require.NoError(t, err)
	assert.False(t, applied)

	batch, err := s.NextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, batch)

	require.NoError(t, s.MarkApplied(ctx, "deadbeef", batch))

	applied, err = s.IsApplied(ctx, "deadbeef")
	require.NoError(t, err)
	assert.True(t, applied)

	hashes, err := s.AppliedHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeef"}, hashes)
}

func TestMarkRolledBack(t *testing.T) {
	s := openState(t)
	ctx := context.Background()

	require.NoError(t, s.MarkApplied(ctx, "aaa", 1))
	require.NoError(t, s.MarkRolledBack(ctx, "aaa"))

	applied, err := s.IsApplied(ctx, "aaa")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestLockIsReentrantWithinProcess(t *testing.T) {
	s := openState(t)
	ctx := context.Background()

	release1, err := s.Lock(ctx, time.Second)
	require.NoError(t, err)

	release2, err := s.Lock(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, release2(ctx))
	require.NoError(t, release1(ctx))
}

func TestBreakLockClearsLock(t *testing.T) {
	s := openState(t)
	ctx := context.Background()

	_, err := s.Lock(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, s.BreakLock(ctx))

	// Lock should be acquirable again immediately.
	release, err := s.Lock(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestLogRecordsEntry(t *testing.T) {
	s := openState(t)
	ctx := context.Background()
	require.NoError(t, s.Log(ctx, "aaa", state.OpApply, "test"))

	rows, err := s.Backend.Execute(ctx, "SELECT operation FROM "+s.Backend.QuoteIdentifier(s.Tables.Log), nil)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var op string
	require.NoError(t, rows.Scan(&op))
	assert.Equal(t, string(state.OpApply), op)
}
