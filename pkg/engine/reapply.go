// SPDX-License-Identifier: Apache-2.0

package engine

import "context"

// Reapply rolls back the target migrations and immediately applies them
// again — the standard way to pick up a change to a migration that has
// already run.
func (e *Engine) Reapply(ctx context.Context, targets []string, force bool) ([]string, error) {
	if _, err := e.Rollback(ctx, targets, force); err != nil {
		return nil, err
	}
	return e.Apply(ctx, targets, force)
}
