// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/marcosschroh/yoyo-database-migrations/pkg/state"
	"github.com/marcosschroh/yoyo-database-migrations/pkg/step"
)

// Mark records the target migrations as applied without running their
// steps — used when a schema change was already made out-of-band and the
// bookkeeping tables just need to catch up.
func (e *Engine) Mark(ctx context.Context, targets []string) ([]string, error) {
	var marked []string

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

			if err := e.State.MarkApplied(ctx, m.Hash, batch); err != nil {
				return err
			}
			if err := e.State.Log(ctx, m.Hash, state.OpMark, ""); err != nil {
				return err
			}
			marked = append(marked, m.ID)
		}
		return nil
	})

	return marked, err
}
