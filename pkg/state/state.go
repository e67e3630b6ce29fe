// SPDX-License-Identifier: Apache-2.0

// Package state manages the bookkeeping tables an engine uses to track
// which migrations have been applied, an audit log of every apply/rollback/
// mark/unmark, and the advisory lock that serializes concurrent engines.
package state

import (
	"context"
	"fmt"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
)

// Tables names the bookkeeping tables. The defaults match the historical
// "_yoyo_*" names; callers that need a private bookkeeping namespace (e.g.
// multiple engines sharing one database) can override the names.
type Tables struct {
	Migration string
	Log       string
	Version   string
	Lock      string
}

// DefaultTables returns the canonical table names.
func DefaultTables() Tables {
	return Tables{
		Migration: "_yoyo_migration",
		Log:       "_yoyo_log",
		Version:   "_yoyo_version",
		Lock:      "yoyo_lock",
	}
}

// State wraps a Backend with the bookkeeping table names it should use.
type State struct {
	Backend *db.Backend
	Tables  Tables

	// BinaryVersion is the calling program's own semver, stamped into the
	// version table on schema creation/upgrade and compared against it by
	// VersionCompatibility. "development" (the default) skips the check,
	// matching the source engine's treatment of unreleased builds.
	BinaryVersion string

	lockDepth int
}

// New returns a State using the default table names.
func New(backend *db.Backend) *State {
	return &State{Backend: backend, Tables: DefaultTables(), BinaryVersion: "development"}
}

// IsApplied reports whether hash is recorded in the migration table.
func (s *State) IsApplied(ctx context.Context, hash string) (bool, error) {
	q := fmt.Sprintf("SELECT migration_hash FROM %s WHERE migration_hash = :hash",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	rows, err := s.Backend.Execute(ctx, q, map[string]any{"hash": hash})
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// AppliedHashes returns every migration_hash recorded as applied, ordered
// by batch and, within one batch, by hash (not by the order they were
// applied in).
func (s *State) AppliedHashes(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT migration_hash FROM %s ORDER BY applied_at_batch, migration_hash",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	rows, err := s.Backend.Execute(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		out = append(out, hash)
	}
	return out, rows.Err()
}

// MarkApplied records hash as applied, in batch (a monotonically
// increasing counter recording relative apply order, since some backends
// don't preserve insertion order without an explicit column to sort by).
func (s *State) MarkApplied(ctx context.Context, hash string, batch int) error {
	q := fmt.Sprintf("INSERT INTO %s (migration_hash, applied_at_batch) VALUES (:hash, :batch)",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	_, err := s.Backend.Exec(ctx, q, map[string]any{"hash": hash, "batch": batch})
	return err
}

// MarkRolledBack removes hash from the applied set.
func (s *State) MarkRolledBack(ctx context.Context, hash string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE migration_hash = :hash",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	_, err := s.Backend.Exec(ctx, q, map[string]any{"hash": hash})
	return err
}

// NextBatch returns one past the highest applied_at_batch recorded, for use
// as the batch number of the next set of migrations to be applied.
func (s *State) NextBatch(ctx context.Context) (int, error) {
	q := fmt.Sprintf("SELECT COALESCE(MAX(applied_at_batch), 0) FROM %s",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	rows, err := s.Backend.Execute(ctx, q, nil)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var max int
	if err := db.ScanFirstValue(rows, &max); err != nil {
		return 0, err
	}
	return max + 1, nil
}
