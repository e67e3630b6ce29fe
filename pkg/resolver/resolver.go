// SPDX-License-Identifier: Apache-2.0

// Package resolver orders a set of migrations by their declared
// dependencies, and answers ancestor/descendant/head queries against that
// order.
package resolver

import (
	"fmt"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
)

// Graph is a resolved dependency graph over a fixed set of migrations.
type Graph struct {
	migrations map[string]*migration.Migration
	// dependents maps an id to the ids that declare it as a dependency.
	dependents map[string][]string
	order      []string // insertion order, for stable iteration
}

// Build validates that every dependency resolves to a known migration and
// returns a Graph. It does not itself detect cycles; cycles surface when
// Sort is called.
func Build(migrations []*migration.Migration) (*Graph, error) {
	g := &Graph{
		migrations: make(map[string]*migration.Migration, len(migrations)),
		dependents: make(map[string][]string),
	}

	for _, m := range migrations {
		g.migrations[m.ID] = m
		g.order = append(g.order, m.ID)
	}

	for _, m := range migrations {
		for _, dep := range m.Dependencies {
			if _, ok := g.migrations[dep]; !ok {
				return nil, &migration.BadMigrationError{
					ID:     m.ID,
					Reason: fmt.Sprintf("depends on unknown migration %q", dep),
				}
			}
			g.dependents[dep] = append(g.dependents[dep], m.ID)
		}
	}

	return g, nil
}

// Sort returns migrations in a stable topological order: dependencies
// before dependents, ties broken by original (insertion) order. Uses
// Kahn's algorithm with an insertion-ordered ready queue so the result is
// deterministic across runs for the same input.
func (g *Graph) Sort() ([]*migration.Migration, error) {
	indegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.migrations[id].Dependencies)
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var out []*migration.Migration
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		out = append(out, g.migrations[id])

		for _, dep := range g.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(g.order) {
		var stuck []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, &migration.BadMigrationError{
			ID:     fmt.Sprintf("%v", stuck),
			Reason: "dependency cycle detected",
		}
	}

	return out, nil
}

// Ancestors returns every migration id transitively depended on by id,
// including id itself.
func (g *Graph) Ancestors(id string) []string {
	seen := map[string]bool{}
	var walk func(string)
	walk = func(cur string) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		if m, ok := g.migrations[cur]; ok {
			for _, dep := range m.Dependencies {
				walk(dep)
			}
		}
	}
	walk(id)
	return orderedKeys(g.order, seen)
}

// Descendants returns every migration id that transitively depends on id,
// including id itself.
func (g *Graph) Descendants(id string) []string {
	seen := map[string]bool{}
	var walk func(string)
	walk = func(cur string) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		for _, dep := range g.dependents[cur] {
			walk(dep)
		}
	}
	walk(id)
	return orderedKeys(g.order, seen)
}

// Heads returns the ids with no dependents — the migrations nothing else
// in the graph depends on.
func (g *Graph) Heads() []string {
	var out []string
	for _, id := range g.order {
		if len(g.dependents[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

func orderedKeys(order []string, set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, id := range order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
