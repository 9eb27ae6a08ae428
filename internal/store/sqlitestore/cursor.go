package sqlitestore

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/roach88/scrabbledb/internal/store"
)

// cursor folds the ordered cell stream into rows. It reads one cell
// ahead: the first cell of the next row is held in pending.
type cursor struct {
	rows    *sql.Rows
	row     store.Row
	pending *store.Cell
	pendKey []byte
	done    bool
	err     error
}

func (c *cursor) Next() bool {
	if c.done {
		return false
	}

	var row store.Row
	if c.pending != nil {
		row.Key = c.pendKey
		row.Cells = append(row.Cells, *c.pending)
		c.pending, c.pendKey = nil, nil
	}

	for c.rows.Next() {
		var key, value []byte
		var cell store.Cell
		if err := c.rows.Scan(&key, &cell.Family, &cell.Qualifier, &value); err != nil {
			c.fail(fmt.Errorf("scan cell: %v: %w", err, store.ErrUnavailable))
			return false
		}
		cell.Value = value

		if row.Key == nil {
			row.Key = key
		}
		if !bytes.Equal(key, row.Key) {
			c.pending, c.pendKey = &cell, key
			c.row = row
			return true
		}
		row.Cells = append(row.Cells, cell)
	}

	if err := c.rows.Err(); err != nil {
		c.fail(fmt.Errorf("iterate cells: %w", err))
		return false
	}

	c.done = true
	_ = c.rows.Close()
	if row.Key == nil {
		return false
	}
	c.row = row
	return true
}

func (c *cursor) fail(err error) {
	c.err = err
	c.done = true
	_ = c.rows.Close()
}

func (c *cursor) Row() store.Row { return c.row }

func (c *cursor) Err() error { return c.err }

// Close ends the scan. A scan closed early reports no error.
func (c *cursor) Close() error {
	if c.done && c.err == nil {
		return nil
	}
	c.done = true
	return c.rows.Close()
}
