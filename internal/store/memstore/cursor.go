package memstore

import (
	"bytes"
	"context"

	"github.com/google/btree"

	"github.com/roach88/scrabbledb/internal/store"
)

// cursor pulls one entry per Next from a private snapshot.
type cursor struct {
	ctx   context.Context
	rows  *btree.BTreeG[*entry]
	start []byte
	end   []byte

	last   *entry
	row    store.Row
	closed bool
	err    error
}

func (c *cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return false
	}

	var next *entry
	visit := func(e *entry) bool {
		if c.last != nil && bytes.Equal(e.key, c.last.key) {
			return true
		}
		if c.end != nil && bytes.Compare(e.key, c.end) >= 0 {
			return false
		}
		next = e
		return false
	}

	switch {
	case c.last != nil:
		c.rows.AscendGreaterOrEqual(c.last, visit)
	case c.start != nil:
		c.rows.AscendGreaterOrEqual(&entry{key: c.start}, visit)
	default:
		c.rows.Ascend(visit)
	}

	if next == nil {
		c.closed = true
		return false
	}
	c.last = next
	c.row = store.Row{Key: next.key, Cells: next.cells}
	return true
}

func (c *cursor) Row() store.Row { return c.row }

func (c *cursor) Err() error { return c.err }

func (c *cursor) Close() error {
	c.closed = true
	c.err = nil
	c.rows = nil
	return nil
}
