package orm

import (
	"fmt"
)

// ChildAdder attaches the child values carried by r to parent.
type ChildAdder[T any] func(parent *T, r Record) error

// CollatingRowMapper folds the rows of a one-to-many join into one entity per
// key. Rows sharing a key need not be contiguous. Entities are returned in
// the order their key was first seen.
//
// A CollatingRowMapper holds per-query state; create one for each query.
type CollatingRowMapper[T any] struct {
	mapRow    RowMapper[T]
	addChild  ChildAdder[T]
	keyColumn string

	index map[string]*T
	rows  []*T
}

// NewCollatingRowMapper folds rows sharing keyColumn into one entity, adding
// each row to it with addChild.
func NewCollatingRowMapper[T any](mapRow RowMapper[T], addChild ChildAdder[T], keyColumn string) *CollatingRowMapper[T] {
	return &CollatingRowMapper[T]{
		mapRow:    mapRow,
		addChild:  addChild,
		keyColumn: keyColumn,
		index:     make(map[string]*T),
	}
}

// MapRow consumes one record.
func (c *CollatingRowMapper[T]) MapRow(r Record) error {
	raw, ok := r.Get(c.keyColumn)
	if !ok {
		return fmt.Errorf("%w: collation key '%s'", ErrMissingColumn, c.keyColumn)
	}
	key, err := asString(raw)
	if err != nil {
		return fmt.Errorf("collation key '%s': %w", c.keyColumn, err)
	}

	parent, seen := c.index[key]
	if !seen {
		parent, err = c.mapRow(r)
		if err != nil {
			return err
		}
		c.index[key] = parent
		c.rows = append(c.rows, parent)
	}

	if c.addChild != nil {
		return c.addChild(parent, r)
	}
	return nil
}

// Rows returns the collated entities.
func (c *CollatingRowMapper[T]) Rows() []*T {
	return c.rows
}
