// SPDX-License-Identifier: Apache-2.0

package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
)

func TestTranslateNoParams(t *testing.T) {
	out, args, err := db.Translate(db.ParamStyleDollar, "SELECT 1", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	assert.Nil(t, args)
}

func TestTranslateQmark(t *testing.T) {
	out, args, err := db.Translate(db.ParamStyleQmark, "SELECT * FROM t WHERE id = :id AND name = :name", map[string]any{
		"id":   1,
		"name": "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?", out)
	assert.Len(t, args, 2)
}

func TestTranslateDollar(t *testing.T) {
	out, args, err := db.Translate(db.ParamStyleDollar, "SELECT * FROM t WHERE id = :id", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = $1", out)
	assert.Equal(t, []any{1}, args)
}

func TestTranslateNamed(t *testing.T) {
	out, args, err := db.Translate(db.ParamStyleNamed, "SELECT * FROM t WHERE id = :id", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = :id", out)
	require.Len(t, args, 1)
}

func TestTranslateMissingParam(t *testing.T) {
	_, _, err := db.Translate(db.ParamStyleQmark, "SELECT * FROM t WHERE id = :id", map[string]any{"other": 1})
	assert.Error(t, err)
}

func TestTranslateIgnoresTypeCast(t *testing.T) {
	out, args, err := db.Translate(db.ParamStyleDollar, "SELECT id::int FROM t WHERE id = :id", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id::int FROM t WHERE id = $1", out)
	assert.Equal(t, []any{1}, args)
}

func TestParamStyleString(t *testing.T) {
	assert.Equal(t, "qmark", db.ParamStyleQmark.String())
	assert.Equal(t, "dollar", db.ParamStyleDollar.String())
	assert.Equal(t, "named", db.ParamStyleNamed.String())
}
