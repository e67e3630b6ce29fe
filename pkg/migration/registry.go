// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// GoMigration is what a program registers for a migration implemented in
// Go rather than SQL: the dependency list and transaction flag mirror a
// SQL file's front-matter, and Build constructs the steps.
type GoMigration struct {
	Dependencies    []string
	UseTransactions bool
	PostApply       bool
	Build           StepBuilder
}

// Registry holds Go-code migrations, keyed by ID. It is deliberately not a
// package-level global: callers construct one explicitly and pass it to
// the loader, so registering a migration has no effect on any other
// Registry in the process.
type Registry struct {
	entries map[string]GoMigration
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]GoMigration)}
}

// Register adds a Go-code migration under id. It is an error to register
// the same id twice.
func (r *Registry) Register(id string, m GoMigration) error {
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("migration: registry: %q already registered", id)
	}
	r.entries[id] = m
	r.order = append(r.order, id)
	return nil
}

// Lookup returns the registered migration for id, if any.
func (r *Registry) Lookup(id string) (GoMigration, bool) {
	m, ok := r.entries[id]
	return m, ok
}

// IDs returns the registered ids, in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// step re-exported so callers building a GoMigration don't need a second
// import for common step constructors.
var (
	NewAtomicStep = step.NewAtomic
)
