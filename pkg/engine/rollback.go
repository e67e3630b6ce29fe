// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// Rollback undoes the target migrations (and every migration that depends
// on them), in reverse dependency order. An empty targets list rolls back
// everything that's applied.
func (e *Engine) Rollback(ctx context.Context, targets []string, force bool) ([]string, error) {
	var rolledBack []string

	err := e.withLock(ctx, func(ctx context.Context) error {
		wanted, err := e.resolveTargets(targets, step.Rollback)
		if err != nil {
			return err
		}

		ordered, err := e.graph.Sort()
		if err != nil {
			return err
		}

		hasTxDDL, err := e.transactionalDDL(ctx)
		if err != nil {
			return err
		}

		for i := len(ordered) - 1; i >= 0; i-- {
			m := ordered[i]
			if !wanted[m.ID] {
				continue
			}
			done, err := e.State.IsApplied(ctx, m.Hash)
			if err != nil {
				return err
			}
			if !done {
				continue
			}

			e.Logger.LogMigrationRollback(m.ID)

			steps, err := m.Steps()
			if err != nil {
				return err
			}
			if err := runMigrationSteps(ctx, e.Backend, steps, step.Rollback, m.UseTransactions, hasTxDDL, force, e.Logger, m.ID); err != nil {
				return err
			}

			if err := e.State.MarkRolledBack(ctx, m.Hash); err != nil {
				return err
			}
			if err := e.State.Log(ctx, m.Hash, state.OpRollback, ""); err != nil {
				return err
			}

			e.Logger.LogMigrationRollbackComplete(m.ID)
			rolledBack = append(rolledBack, m.ID)
		}

		return nil
	})

	return rolledBack, err
}
