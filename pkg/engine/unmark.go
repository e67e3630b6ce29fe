// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// Unmark removes the target migrations from the applied set without
// running their rollback steps.
func (e *Engine) Unmark(ctx context.Context, targets []string) ([]string, error) {
	var unmarked []string

	err := e.withLock(ctx, func(ctx context.Context) error {
		wanted, err := e.resolveTargets(targets, step.Rollback)
		if err != nil {
			return err
		}

		ordered, err := e.graph.Sort()
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

			if err := e.State.MarkRolledBack(ctx, m.Hash); err != nil {
				return err
			}
			if err := e.State.Log(ctx, m.Hash, state.OpUnmark, ""); err != nil {
				return err
			}
			unmarked = append(unmarked, m.ID)
		}
		return nil
	})

	return unmarked, err
}
