package boltstore

import (
	"bytes"
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/roach88/scrabbledb/internal/store"
)

type cursor struct {
	ctx   context.Context
	db    *bolt.DB
	table []byte

	// seek is the first key of the next page; nil means the table start.
	seek []byte
	end  []byte
	page int

	buf       []store.Row
	row       store.Row
	exhausted bool
	closed    bool
	err       error
}

func (c *cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if len(c.buf) == 0 {
		if c.exhausted {
			return false
		}
		if err := c.fill(); err != nil {
			c.err = err
			return false
		}
		if len(c.buf) == 0 {
			return false
		}
	}
	c.row, c.buf = c.buf[0], c.buf[1:]
	return true
}

// fill reads the next page of rows.
func (c *cursor) fill() error {
	return c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.table)
		if b == nil {
			return fmt.Errorf("table %s: %w", c.table, store.ErrTableNotFound)
		}
		bc := b.Cursor()

		var k, v []byte
		if c.seek == nil {
			k, v = bc.First()
		} else {
			k, v = bc.Seek(c.seek)
		}

		for ; k != nil; k, v = bc.Next() {
			if c.end != nil && bytes.Compare(k, c.end) >= 0 {
				c.exhausted = true
				return nil
			}
			if len(c.buf) == c.page {
				c.seek = append([]byte(nil), k...)
				return nil
			}
			cells, err := decodeCells(v)
			if err != nil {
				return fmt.Errorf("row %q: %w", k, err)
			}
			c.buf = append(c.buf, store.Row{Key: append([]byte(nil), k...), Cells: cells})
		}
		c.exhausted = true
		return nil
	})
}

func (c *cursor) Row() store.Row { return c.row }

func (c *cursor) Err() error {
	if c.closed {
		return nil
	}
	return c.err
}

func (c *cursor) Close() error {
	c.closed = true
	c.buf = nil
	return nil
}
