// SPDX-License-Identifier: Apache-2.0

package migration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadParsesSQLFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_create_users.sql", `-- depends:
-- transactional: true
-- +migrate Up
CREATE TABLE users (id INTEGER);
-- +migrate Down
DROP TABLE users;
`)
	writeFile(t, dir, "0002_add_index.sql", `-- depends: 0001_create_users
-- +migrate Up
CREATE INDEX idx_users_id ON users (id);
`)

	c, err := migration.Load(dir, nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	first, ok := c.Get("0001_create_users")
	require.True(t, ok)
	assert.Empty(t, first.Dependencies)
	assert.True(t, first.UseTransactions)

	second, ok := c.Get("0002_add_index")
	require.True(t, ok)
	assert.Equal(t, []string{"0001_create_users"}, second.Dependencies)

	steps, err := first.Steps()
	require.NoError(t, err)
	require.Len(t, steps, 1)
}

func TestLoadRejectsMissingUpSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_bad.sql", `-- depends:
-- +migrate Down
DROP TABLE users;
`)

	_, err := migration.Load(dir, nil)
	require.Error(t, err)
	assert.IsType(t, &migration.BadMigrationError{}, err)
}

func TestLoadGoMigrationRequiresRegistry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_custom.go-migration", "")

	_, err := migration.Load(dir, nil)
	require.Error(t, err)
	assert.IsType(t, &migration.BadMigrationError{}, err)
}

func TestLoadGoMigrationResolvesFromRegistry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_custom.go-migration", "")

	registry := migration.NewRegistry()
	require.NoError(t, registry.Register("0001_custom", migration.GoMigration{
		UseTransactions: true,
		Build: func() ([]step.Step, error) {
			return []step.Step{migration.NewAtomicStep(step.SQL("SELECT 1"), nil)}, nil
		},
	}))

	c, err := migration.Load(dir, registry)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	m, ok := c.Get("0001_custom")
	require.True(t, ok)
	steps, err := m.Steps()
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestLoadTransactionalFalseDisablesTransactions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_ddl.sql", `-- transactional: false
-- +migrate Up
CREATE INDEX CONCURRENTLY idx_x ON t (x);
`)

	c, err := migration.Load(dir, nil)
	require.NoError(t, err)

	m, ok := c.Get("0001_ddl")
	require.True(t, ok)
	assert.False(t, m.UseTransactions)
}
