// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

func noop() ([]step.Step, error) { return nil, nil }

func TestNewCollectionRejectsDuplicateIDs(t *testing.T) {
	a := migration.New("0001_a", "", nil, true, false, noop)
	b := migration.New("0001_a", "", nil, true, false, noop)

	_, err := migration.NewCollection(a, b)
	require.Error(t, err)
	assert.IsType(t, &migration.ConflictError{}, err)
}

func TestCollectionSeparatesPostApply(t *testing.T) {
	a := migration.New("0001_a", "", nil, true, false, noop)
	hook := migration.New("9999_reindex", "", nil, true, true, noop)

	c, err := migration.NewCollection(a, hook)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Len(t, c.All(), 1)
	assert.Len(t, c.PostApply(), 1)
	assert.Equal(t, "9999_reindex", c.PostApply()[0].ID)
}

func TestCollectionConcatRejectsOverlap(t *testing.T) {
	a := migration.New("0001_a", "", nil, true, false, noop)
	b := migration.New("0001_a", "", nil, true, false, noop)

	c1, err := migration.NewCollection(a)
	require.NoError(t, err)
	c2, err := migration.NewCollection(b)
	require.NoError(t, err)

	_, err = c1.Concat(c2)
	assert.Error(t, err)
}

func TestCollectionFilter(t *testing.T) {
	a := migration.New("0001_a", "", nil, true, false, noop)
	b := migration.New("0002_b", "", nil, true, false, noop)

	c, err := migration.NewCollection(a, b)
	require.NoError(t, err)

	filtered, err := c.Filter(func(m *migration.Migration) bool { return m.ID == "0002_b" })
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Len())
}

func TestMigrationHashIsStableForID(t *testing.T) {
	m1 := migration.New("0001_a", "", nil, true, false, noop)
	m2 := migration.New("0001_a", "", nil, true, false, noop)
	assert.Equal(t, m1.Hash, m2.Hash)
	assert.NotEqual(t, m1.Hash, m1.ID)
}
