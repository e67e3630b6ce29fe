// SPDX-License-Identifier: Apache-2.0

package engine

import "context"

// Status describes one migration's position relative to the applied set.
type Status struct {
	ID      string
	Applied bool
}

// Show returns every migration in reverse dependency order, annotated with
// whether it's currently applied.
func (e *Engine) Show(ctx context.Context) ([]Status, error) {
	ordered, err := e.graph.Sort()
	if err != nil {
		return nil, err
	}

	applied, err := e.State.AppliedHashes(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, h := range applied {
		appliedSet[h] = true
	}

	out := make([]Status, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		m := ordered[i]
		out = append(out, Status{ID: m.ID, Applied: appliedSet[m.Hash]})
	}
	return out, nil
}
