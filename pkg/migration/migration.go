// SPDX-License-Identifier: Apache-2.0

// Package migration models a single migration: its identity, its
// dependencies on other migrations, and the steps it runs when applied or
// rolled back.
package migration

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// StepBuilder lazily produces the steps a Migration runs for apply and
// rollback. It is called once, the first time the migration is loaded,
// deferring any file I/O or Go-registry lookups until a migration is
// actually about to run.
type StepBuilder func() ([]step.Step, error)

// Migration is one named unit of schema change.
type Migration struct {
	// ID is the migration's identifier, derived from its filename without
	// extension (e.g. "0001_create_users").
	ID string

	// Hash is sha256(ID) in hex, used as the stable identity stored in the
	// bookkeeping tables, so renaming a migration's source location never
	// invalidates its applied status.
	Hash string

	// Source is the path this migration was loaded from, for diagnostics.
	Source string

	// Dependencies holds the IDs this migration's __depends__ declares.
	Dependencies []string

	// UseTransactions controls whether the engine wraps this migration's
	// steps in a transaction. Defaults to true; a SQL file's
	// "-- transactional: false" front matter (or a GoMigration entry's
	// UseTransactions field) sets it to false. Backend DDL support does not
	// change this field: the engine checks that separately when running.
	UseTransactions bool

	// PostApply marks a migration that runs after every successful apply,
	// and is never recorded in the bookkeeping tables.
	PostApply bool

	build StepBuilder
	steps []step.Step
}

// New constructs a Migration with its hash derived from id.
func New(id, source string, deps []string, useTransactions, postApply bool, build StepBuilder) *Migration {
	sum := sha256.Sum256([]byte(id))
	return &Migration{
		ID:              id,
		Hash:            hex.EncodeToString(sum[:]),
		Source:          source,
		Dependencies:    deps,
		UseTransactions: useTransactions,
		PostApply:       postApply,
		build:           build,
	}
}

// Steps returns the migration's steps, building them on first use.
func (m *Migration) Steps() ([]step.Step, error) {
	if m.steps == nil {
		steps, err := m.build()
		if err != nil {
			return nil, err
		}
		m.steps = steps
	}
	return m.steps, nil
}
