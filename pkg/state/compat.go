// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
)

// CompatResult reports how the caller's BinaryVersion compares against the
// semver stamped into the bookkeeping schema by whichever binary created or
// last upgraded it.
type CompatResult int

const (
	// CompatCheckSkipped means no comparison was made: the schema isn't
	// initialized yet, or either version is "development" or not valid
	// semver, so nothing can be concluded.
	CompatCheckSkipped CompatResult = iota
	// CompatSchemaOlder means the schema was stamped by an older binary.
	CompatSchemaOlder
	// CompatSchemaEqual means the schema and binary versions match.
	CompatSchemaEqual
	// CompatSchemaNewer means the schema was stamped by a newer binary than
	// the one currently running — the caller may be out of date.
	CompatSchemaNewer
)

// VersionCompatibility compares BinaryVersion against the binary_version
// recorded in the schema's version table.
func (s *State) VersionCompatibility(ctx context.Context) (CompatResult, error) {
	if s.BinaryVersion == "" || s.BinaryVersion == "development" {
		return CompatCheckSkipped, nil
	}

	version, err := s.currentVersion(ctx)
	if err != nil {
		return CompatCheckSkipped, err
	}
	// version < 2 means there's no version table yet (uninitialized, or a
	// legacy v1 schema mid-upgrade) and so nothing to compare against.
	if version < 2 {
		return CompatCheckSkipped, nil
	}

	q := fmt.Sprintf("SELECT binary_version FROM %s", s.Backend.QuoteIdentifier(s.Tables.Version))
	rows, err := s.Backend.Execute(ctx, q, nil)
	if err != nil {
		return CompatCheckSkipped, err
	}
	defer rows.Close()

	var schemaVersion string
	if err := db.ScanFirstValue(rows, &schemaVersion); err != nil {
		return CompatCheckSkipped, err
	}

	if schemaVersion == "" || schemaVersion == "development" {
		return CompatCheckSkipped, nil
	}

	schemaSemver := ensureVPrefix(schemaVersion)
	binarySemver := ensureVPrefix(s.BinaryVersion)
	if !semver.IsValid(schemaSemver) || !semver.IsValid(binarySemver) {
		return CompatCheckSkipped, nil
	}

	switch semver.Compare(semver.Canonical(schemaSemver), semver.Canonical(binarySemver)) {
	case -1:
		return CompatSchemaOlder, nil
	case 1:
		return CompatSchemaNewer, nil
	default:
		return CompatSchemaEqual, nil
	}
}

func ensureVPrefix(v string) string {
	if len(v) > 0 && v[0] != 'v' {
		return "v" + v
	}
	return v
}
