// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/migration"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// Apply brings the target migrations (and every migration they depend on)
// up to date. An empty targets list applies everything. force continues
// past step errors instead of aborting.
func (e *Engine) Apply(ctx context.Context, targets []string, force bool) ([]string, error) {
	var applied []string

	err := e.withLock(ctx, func(ctx context.Context) error {
		wanted, err := e.resolveTargets(targets, step.Apply)
		if err != nil {
			return err
		}

		ordered, err := e.graph.Sort()
		if err != nil {
			return err
		}

		batch, err := e.State.NextBatch(ctx)
		if err != nil {
			return err
		}

		for _, m := range ordered {
			if !wanted[m.ID] {
				continue
			}
			done, err := e.State.IsApplied(ctx, m.Hash)
			if err != nil {
				return err
			}
			if done {
				continue
			}

			if err := e.applyOne(ctx, m, batch, force); err != nil {
				return err
			}
			applied = append(applied, m.ID)
		}

		if len(applied) == 0 {
			return nil
		}
		return e.runPostApplyHooks(ctx, force)
	})

	return applied, err
}

func (e *Engine) applyOne(ctx context.Context, m *migration.Migration, batch int, force bool) error {
	e.Logger.LogMigrationStart(m.ID)

	steps, err := m.Steps()
	if err != nil {
		return err
	}

	hasTxDDL, err := e.transactionalDDL(ctx)
	if err != nil {
		return err
	}

	if err := runMigrationSteps(ctx, e.Backend, steps, step.Apply, m.UseTransactions, hasTxDDL, force, e.Logger, m.ID); err != nil {
		return err
	}

	if err := e.State.MarkApplied(ctx, m.Hash, batch); err != nil {
		return err
	}
	if err := e.State.Log(ctx, m.Hash, state.OpApply, ""); err != nil {
		return err
	}

	e.Logger.LogMigrationComplete(m.ID)
	return nil
}

// runPostApplyHooks runs every post-apply migration's steps, without
// recording them in the bookkeeping tables. Apply calls it only when it
// applied at least one migration.
func (e *Engine) runPostApplyHooks(ctx context.Context, force bool) error {
	hasTxDDL, err := e.transactionalDDL(ctx)
	if err != nil {
		return err
	}

	for _, m := range e.Collection.PostApply() {
		steps, err := m.Steps()
		if err != nil {
			return err
		}
		if err := runMigrationSteps(ctx, e.Backend, steps, step.Apply, m.UseTransactions, hasTxDDL, force, e.Logger, m.ID); err != nil {
			return err
		}
	}
	return nil
}
