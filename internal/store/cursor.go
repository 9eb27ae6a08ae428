package store

import "github.com/roach88/scrabbledb/internal/queryir"

// Cursor is a blocking pull iterator over scanned rows.
//
//	cur, err := st.Scan(ctx, "Games", opts)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//		row := cur.Row()
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	// Next advances to the next row. It returns false at end of stream,
	// on error, or after Close.
	Next() bool

	// Row returns the current row. Valid until the next call to Next.
	Row() Row

	// Err returns the error that stopped iteration, if any.
	Err() error

	// Close ends the scan. It is safe to call more than once.
	Close() error
}

// Refine wraps a cursor yielding full rows so that it applies opts.Filter
// and then opts.Families. Backends without native pushdown use it.
func Refine(c Cursor, opts ScanOptions) Cursor {
	if opts.Filter == nil && len(opts.Families) == 0 {
		return c
	}
	return &refined{inner: c, filter: opts.Filter, families: opts.Families}
}

type refined struct {
	inner    Cursor
	filter   queryir.Predicate
	families []string
	row      Row
}

func (r *refined) Next() bool {
	for r.inner.Next() {
		row := r.inner.Row()
		if !queryir.Match(r.filter, row) {
			continue
		}
		r.row = row.Project(r.families)
		return true
	}
	return false
}

func (r *refined) Row() Row     { return r.row }
func (r *refined) Err() error   { return r.inner.Err() }
func (r *refined) Close() error { return r.inner.Close() }

// SliceCursor iterates over rows already in memory.
type SliceCursor struct {
	rows   []Row
	pos    int
	closed bool
}

// NewSliceCursor returns a cursor over rows, which must be sorted by key.
func NewSliceCursor(rows []Row) *SliceCursor {
	return &SliceCursor{rows: rows, pos: -1}
}

func (c *SliceCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Row() Row {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return Row{}
	}
	return c.rows[c.pos]
}

func (c *SliceCursor) Err() error { return nil }

func (c *SliceCursor) Close() error {
	c.closed = true
	return nil
}
