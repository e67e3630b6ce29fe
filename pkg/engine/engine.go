// SPDX-License-Identifier: Apache-2.0

// Package engine drives the apply/rollback/mark/unmark/reapply protocol
// against a set of migrations, using a resolver.Graph for ordering and a
// state.State for bookkeeping.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/db"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/logger"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/resolver"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// LockTimeout is how long Apply/Rollback/Reapply wait for the advisory
// lock before giving up. Callers may override it (e.g. from a --lock-timeout
// flag) before driving the engine.
var LockTimeout = 10 * time.Second

// Engine ties a backend, its bookkeeping state, a loaded set of
// migrations, and a logger together.
type Engine struct {
	Backend    *db.Backend
	State      *state.State
	Collection *migration.Collection
	Logger     logger.Logger

	graph *resolver.Graph

	txDDLChecked bool
	hasTxDDL     bool
}

// New builds an Engine. collection must already be fully loaded.
func New(backend *db.Backend, collection *migration.Collection, log logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.NewNoop()
	}
	graph, err := resolver.Build(collection.All())
	if err != nil {
		return nil, err
	}
	return &Engine{
		Backend:    backend,
		State:      state.New(backend),
		Collection: collection,
		Logger:     log,
		graph:      graph,
	}, nil
}

// withLock runs fn while holding the advisory lock, ensuring the
// bookkeeping schema is current first. The lock row lives in one of the
// bookkeeping tables, so the schema is brought up to date once before the
// lock is taken and checked again while holding it.
func (e *Engine) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.State.EnsureSchema(ctx); err != nil {
		return err
	}
	e.Logger.LogLockWait(LockTimeout.Seconds())
	release, err := e.State.Lock(ctx, LockTimeout)
	if err != nil {
		return err
	}
	e.Logger.LogLockAcquired()
	defer release(ctx)

	if err := e.State.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// BreakLock forcibly clears the advisory lock, regardless of which process
// holds it.
func (e *Engine) BreakLock(ctx context.Context) error {
	return e.State.BreakLock(ctx)
}

// transactionalDDL reports whether the backend's DDL participates in
// enclosing transactions, probing once (Backend.HasTransactionalDDL) and
// caching the result for the engine's lifetime.
func (e *Engine) transactionalDDL(ctx context.Context) (bool, error) {
	if !e.txDDLChecked {
		v, err := e.Backend.HasTransactionalDDL(ctx)
		if err != nil {
			return false, err
		}
		e.hasTxDDL = v
		e.txDDLChecked = true
	}
	return e.hasTxDDL, nil
}

// resolveTargets expands a set of revision arguments (migration ids) into
// the full set of migration ids implied by dir: Apply pulls in each
// target's ancestors, Rollback pulls in each target's descendants. An
// empty ids list means "every migration".
func (e *Engine) resolveTargets(ids []string, dir step.Direction) (map[string]bool, error) {
	all := e.Collection.All()
	if len(ids) == 0 {
		out := make(map[string]bool, len(all))
		for _, m := range all {
			out[m.ID] = true
		}
		return out, nil
	}

	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := e.Collection.Get(id); !ok {
			return nil, fmt.Errorf("engine: no such migration %q", id)
		}
		var expanded []string
		if dir == step.Apply {
			expanded = e.graph.Ancestors(id)
		} else {
			expanded = e.graph.Descendants(id)
		}
		for _, exp := range expanded {
			out[exp] = true
		}
	}
	return out, nil
}

