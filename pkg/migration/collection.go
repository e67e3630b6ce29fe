// SPDX-License-Identifier: Apache-2.0

package migration

// Collection is an ordered list of migrations whose identifiers are
// guaranteed unique. Every mutation re-validates uniqueness rather than
// trusting callers to only ever append through this type, since a
// Collection can also be built by concatenating or filtering others.
type Collection struct {
	items     []*Migration
	postApply []*Migration
}

// NewCollection builds a Collection from items, rejecting duplicate IDs.
func NewCollection(items ...*Migration) (*Collection, error) {
	c := &Collection{}
	for _, m := range items {
		if err := c.add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) add(m *Migration) error {
	if _, ok := c.find(m.ID); ok {
		return &ConflictError{ID: m.ID}
	}
	if m.PostApply {
		c.postApply = append(c.postApply, m)
	} else {
		c.items = append(c.items, m)
	}
	return nil
}

func (c *Collection) find(id string) (*Migration, bool) {
	for _, m := range c.items {
		if m.ID == id {
			return m, true
		}
	}
	for _, m := range c.postApply {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Get looks up a migration by ID.
func (c *Collection) Get(id string) (*Migration, bool) {
	return c.find(id)
}

// All returns the ordinary (non-post-apply) migrations, in collection
// order.
func (c *Collection) All() []*Migration {
	out := make([]*Migration, len(c.items))
	copy(out, c.items)
	return out
}

// PostApply returns the post-apply hook migrations, in collection order.
func (c *Collection) PostApply() []*Migration {
	out := make([]*Migration, len(c.postApply))
	copy(out, c.postApply)
	return out
}

// Filter returns a new Collection containing only migrations for which
// keep returns true. Post-apply membership is preserved.
func (c *Collection) Filter(keep func(*Migration) bool) (*Collection, error) {
	out := &Collection{}
	for _, m := range c.items {
		if keep(m) {
			if err := out.add(m); err != nil {
				return nil, err
			}
		}
	}
	for _, m := range c.postApply {
		if keep(m) {
			if err := out.add(m); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Concat appends other's migrations after c's, re-validating that no
// identifier appears in both.
func (c *Collection) Concat(other *Collection) (*Collection, error) {
	out := &Collection{}
	for _, m := range c.items {
		if err := out.add(m); err != nil {
			return nil, err
		}
	}
	for _, m := range c.postApply {
		if err := out.add(m); err != nil {
			return nil, err
		}
	}
	for _, m := range other.items {
		if err := out.add(m); err != nil {
			return nil, err
		}
	}
	for _, m := range other.postApply {
		if err := out.add(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Len returns the number of ordinary migrations.
func (c *Collection) Len() int { return len(c.items) }
