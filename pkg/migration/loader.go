// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// goMigrationExt marks a migration implemented in Go: <id>.go-migration is
// a zero-byte placeholder on disk so directory scanning remains the single
// source of truth for migration order, while the actual steps come from a
// Registry entry under the same id.
const goMigrationExt = ".go-migration"

const sqlExt = ".sql"

// postApplyPrefix marks a post-apply hook migration by its identifier.
const postApplyPrefix = "post-apply"

// Load scans dir for migration sources and returns them as a Collection.
// SQL files are parsed for their "-- depends:" / "-- transactional:"
// front matter and "-- +migrate Up" / "-- +migrate Down" sections;
// .go-migration placeholder files are resolved against registry. A
// migration whose id starts with "post-apply" is a post-apply hook.
func Load(dir string, registry *Registry) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var migrations []*Migration
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, sqlExt):
			id := strings.TrimSuffix(name, sqlExt)
			m, err := loadSQLFile(filepath.Join(dir, name), id)
			if err != nil {
				return nil, err
			}
			migrations = append(migrations, m)

		case strings.HasSuffix(name, goMigrationExt):
			id := strings.TrimSuffix(name, goMigrationExt)
			m, err := loadGoMigration(filepath.Join(dir, name), id, registry)
			if err != nil {
				return nil, err
			}
			migrations = append(migrations, m)
		}
	}

	for _, m := range migrations {
		if strings.HasPrefix(m.ID, postApplyPrefix) {
			m.PostApply = true
		}
	}

	return NewCollection(migrations...)
}

func loadGoMigration(source, id string, registry *Registry) (*Migration, error) {
	if registry == nil {
		return nil, &BadMigrationError{ID: id, Reason: "no registry supplied for a .go-migration file"}
	}
	entry, ok := registry.Lookup(id)
	if !ok {
		return nil, &BadMigrationError{ID: id, Reason: "no Go migration registered under this id"}
	}
	return New(id, source, entry.Dependencies, entry.UseTransactions, entry.PostApply, entry.Build), nil
}

// sqlFrontMatter is the "-- key: value" header parsed before the first
// "-- +migrate" marker.
type sqlFrontMatter struct {
	dependencies    []string
	useTransactions bool
	postApply       bool
}

func loadSQLFile(path, id string) (*Migration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	front := sqlFrontMatter{useTransactions: true}
	var upLines, downLines []string
	section := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "-- +migrate Up"):
			section = "up"
			continue
		case strings.HasPrefix(trimmed, "-- +migrate Down"):
			section = "down"
			continue
		case section == "" && strings.HasPrefix(trimmed, "-- depends:"):
			deps := strings.TrimSpace(strings.TrimPrefix(trimmed, "-- depends:"))
			if deps != "" {
				front.dependencies = strings.Fields(deps)
			}
			continue
		case section == "" && strings.HasPrefix(trimmed, "-- transactional:"):
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "-- transactional:"))
			front.useTransactions = val != "false"
			continue
		case section == "" && strings.HasPrefix(trimmed, "-- post-apply:"):
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "-- post-apply:"))
			front.postApply = val == "true"
			continue
		}

		switch section {
		case "up":
			upLines = append(upLines, line)
		case "down":
			downLines = append(downLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(upLines) == 0 {
		return nil, &BadMigrationError{ID: id, Reason: "missing -- +migrate Up section"}
	}

	upSQL := strings.TrimSpace(strings.Join(upLines, "\n"))
	downSQL := strings.TrimSpace(strings.Join(downLines, "\n"))

	build := func() ([]step.Step, error) {
		var rollback step.Directive
		if downSQL != "" {
			rollback = step.SQL(downSQL)
		}
		return []step.Step{step.NewAtomic(step.SQL(upSQL), rollback)}, nil
	}

	return New(id, path, front.dependencies, front.useTransactions, front.postApply, build), nil
}
