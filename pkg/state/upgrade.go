// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
)

// schemaVersion is the current bookkeeping schema layout. v0 is no
// bookkeeping tables at all; v1 is the legacy single migration-log table;
// v2 (current) splits that into separate migration/log/version tables.
const schemaVersion = 2

// EnsureSchema brings the bookkeeping tables up to the current schema
// version, creating them from nothing (v0) or upgrading the legacy
// single-table layout (v1) as needed. It is forward-only: there is no
// downgrade path, matching the source engine.
func (s *State) EnsureSchema(ctx context.Context) error {
	version, err := s.currentVersion(ctx)
	if err != nil {
		return err
	}

	switch version {
	case 0:
		return s.createV2Schema(ctx)
	case 1:
		return s.upgrade1to2(ctx)
	default:
		return nil
	}
}

func (s *State) currentVersion(ctx context.Context) (int, error) {
	tables, err := s.Backend.ListTables(ctx)
	if err != nil {
		return 0, err
	}

	has := func(name string) bool {
		for _, t := range tables {
			if t == name {
				return true
			}
		}
		return false
	}

	if !has(s.Tables.Version) {
		if has(s.Tables.Migration) {
			return 1, nil
		}
		return 0, nil
	}

	q := fmt.Sprintf("SELECT version FROM %s", s.Backend.QuoteIdentifier(s.Tables.Version))
	rows, err := s.Backend.Execute(ctx, q, nil)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var v int
	if err := db.ScanFirstValue(rows, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *State) createV2Schema(ctx context.Context) error {
	d := s.Backend.Dialect()
	text, integer := d.TextType(), d.IntegerType()

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			migration_hash %s NOT NULL PRIMARY KEY,
			applied_at_batch %s NOT NULL
		)`, s.Backend.QuoteIdentifier(s.Tables.Migration), text, integer),

		fmt.Sprintf(`CREATE TABLE %s (
			id %s NOT NULL PRIMARY KEY,
			migration_hash %s NOT NULL,
			operation %s NOT NULL,
			username %s NOT NULL,
			hostname %s NOT NULL,
			created_at_epoch %s NOT NULL,
			comment %s NOT NULL
		)`, s.Backend.QuoteIdentifier(s.Tables.Log), text, text, text, text, text, integer, text),

		fmt.Sprintf(`CREATE TABLE %s (version %s NOT NULL, binary_version %s NOT NULL)`,
			s.Backend.QuoteIdentifier(s.Tables.Version), integer, text),

		fmt.Sprintf(`CREATE TABLE %s (locked %s NOT NULL DEFAULT 1 PRIMARY KEY, ctime %s NOT NULL, pid %s NOT NULL)`,
			s.Backend.QuoteIdentifier(s.Tables.Lock), integer, integer, integer),
	}

	for _, stmt := range stmts {
		if _, err := s.Backend.Exec(ctx, stmt, nil); err != nil {
			return err
		}
	}

	insertVersion := fmt.Sprintf("INSERT INTO %s (version, binary_version) VALUES (:v, :bv)",
		s.Backend.QuoteIdentifier(s.Tables.Version))
	_, err := s.Backend.Exec(ctx, insertVersion, map[string]any{"v": schemaVersion, "bv": s.BinaryVersion})
	return err
}

// upgrade1to2 follows the documented sequence exactly: create the new log
// and version tables, synthesize one "apply" log entry per row already
// recorded in the legacy migration table (keyed by id; the hash is computed
// as sha256 of that id, and its ctime is carried over as
// created_at_epoch, since the legacy table predates the log table and has
// no operator/host recorded), drop the legacy table, recreate it in the
// current layout, then repopulate it from the log table — the log is the
// source of truth for the rebuild, not the dropped table's in-memory rows.
func (s *State) upgrade1to2(ctx context.Context) error {
	d := s.Backend.Dialect()
	text, integer := d.TextType(), d.IntegerType()

	createLog := fmt.Sprintf(`CREATE TABLE %s (
		id %s NOT NULL PRIMARY KEY,
		migration_hash %s NOT NULL,
		operation %s NOT NULL,
		username %s NOT NULL,
		hostname %s NOT NULL,
		created_at_epoch %s NOT NULL,
		comment %s NOT NULL
	)`, s.Backend.QuoteIdentifier(s.Tables.Log), text, text, text, text, text, integer, text)
	if _, err := s.Backend.Exec(ctx, createLog, nil); err != nil {
		return err
	}

	createVersion := fmt.Sprintf(`CREATE TABLE %s (version %s NOT NULL, binary_version %s NOT NULL)`,
		s.Backend.QuoteIdentifier(s.Tables.Version), integer, text)
	if _, err := s.Backend.Exec(ctx, createVersion, nil); err != nil {
		return err
	}

	legacyRows, err := s.Backend.Execute(ctx,
		fmt.Sprintf("SELECT id, ctime FROM %s", s.Backend.QuoteIdentifier(s.Tables.Migration)), nil)
	if err != nil {
		return err
	}
	type legacyRow struct {
		hash  string
		ctime int64
	}
	var legacy []legacyRow
	for legacyRows.Next() {
		var r legacyRow
		var id string
		if err := legacyRows.Scan(&id, &r.ctime); err != nil {
			legacyRows.Close()
			return err
		}
		sum := sha256.Sum256([]byte(id))
		r.hash = hex.EncodeToString(sum[:])
		legacy = append(legacy, r)
	}
	legacyRows.Close()

	insertLog := fmt.Sprintf(`INSERT INTO %s
		(id, migration_hash, operation, username, hostname, created_at_epoch, comment)
		VALUES (:id, :hash, :operation, :username, :hostname, :created_at, :comment)`,
		s.Backend.QuoteIdentifier(s.Tables.Log))
	for i, r := range legacy {
		if _, err := s.Backend.Exec(ctx, insertLog, map[string]any{
			"id":         fmt.Sprintf("upgrade-%d", i),
			"hash":       r.hash,
			"operation":  string(OpApply),
			"username":   currentUsername(),
			"hostname":   currentHostname(),
			"created_at": r.ctime,
			"comment":    "this log entry created automatically by an internal schema upgrade",
		}); err != nil {
			return err
		}
	}

	if _, err := s.Backend.Exec(ctx, fmt.Sprintf("DROP TABLE %s", s.Backend.QuoteIdentifier(s.Tables.Migration)), nil); err != nil {
		return err
	}

	createMigration := fmt.Sprintf(`CREATE TABLE %s (
		migration_hash %s NOT NULL PRIMARY KEY,
		applied_at_batch %s NOT NULL
	)`, s.Backend.QuoteIdentifier(s.Tables.Migration), text, integer)
	if _, err := s.Backend.Exec(ctx, createMigration, nil); err != nil {
		return err
	}

	logRows, err := s.Backend.Execute(ctx,
		fmt.Sprintf("SELECT migration_hash FROM %s WHERE operation = :op ORDER BY created_at_epoch",
			s.Backend.QuoteIdentifier(s.Tables.Log)),
		map[string]any{"op": string(OpApply)})
	if err != nil {
		return err
	}
	var hashes []string
	for logRows.Next() {
		var h string
		if err := logRows.Scan(&h); err != nil {
			logRows.Close()
			return err
		}
		hashes = append(hashes, h)
	}
	logRows.Close()

	insertMigration := fmt.Sprintf("INSERT INTO %s (migration_hash, applied_at_batch) VALUES (:hash, :batch)",
		s.Backend.QuoteIdentifier(s.Tables.Migration))
	for i, h := range hashes {
		if _, err := s.Backend.Exec(ctx, insertMigration, map[string]any{"hash": h, "batch": i + 1}); err != nil {
			return err
		}
	}

	lockTable := fmt.Sprintf(`CREATE TABLE %s (locked %s NOT NULL DEFAULT 1 PRIMARY KEY, ctime %s NOT NULL, pid %s NOT NULL)`,
		s.Backend.QuoteIdentifier(s.Tables.Lock), integer, integer, integer)
	if _, err := s.Backend.Exec(ctx, lockTable, nil); err != nil {
		return err
	}

	insertVersion := fmt.Sprintf("INSERT INTO %s (version, binary_version) VALUES (:v, :bv)",
		s.Backend.QuoteIdentifier(s.Tables.Version))
	_, err = s.Backend.Exec(ctx, insertVersion, map[string]any{"v": schemaVersion, "bv": s.BinaryVersion})
	return err
}
