// SPDX-License-Identifier: Apache-2.0

package state_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
)

func TestVersionCompatibilitySkippedForDevelopment(t *testing.T) {
	s := openState(t)
	compat, err := s.VersionCompatibility(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.CompatCheckSkipped, compat)
}

func TestVersionCompatibilityEqual(t *testing.T) {
	backend, err := openBackendOnly(t)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	s := state.New(backend)
	s.BinaryVersion = "v1.2.3"
	require.NoError(t, s.EnsureSchema(context.Background()))

	compat, err := s.VersionCompatibility(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.CompatSchemaEqual, compat)
}

func TestVersionCompatibilityOlder(t *testing.T) {
	backend, err := openBackendOnly(t)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	s := state.New(backend)
	s.BinaryVersion = "v1.0.0"
	require.NoError(t, s.EnsureSchema(context.Background()))

	s.BinaryVersion = "v2.0.0"
	compat, err := s.VersionCompatibility(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.CompatSchemaOlder, compat)
}
