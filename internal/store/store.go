package store

import (
	"context"
	"fmt"

	"github.com/roach88/scrabbledb/internal/queryir"
)

// Store is an ordered key-value store with column families.
type Store interface {
	// CreateTable creates a table with the given column families.
	// Returns ErrTableExists if the table is already present.
	CreateTable(ctx context.Context, name string, families []string) error

	// Put writes mutations to a table. Writing an existing cell overwrites
	// it, so repeating a Put is idempotent.
	Put(ctx context.Context, table string, muts ...Mutation) error

	// Scan returns a cursor over the rows selected by opts.
	Scan(ctx context.Context, table string, opts ScanOptions) (Cursor, error)

	// Close releases the store's resources.
	Close() error
}

// Cell is one family:qualifier value within a row.
type Cell struct {
	Family    string
	Qualifier string
	Value     []byte
}

// Mutation writes a set of cells to one row.
type Mutation struct {
	Key   []byte
	Cells []Cell
}

// NewMutation creates a mutation for key.
func NewMutation(key []byte) *Mutation {
	return &Mutation{Key: key}
}

// Add appends a cell to the mutation and returns it for chaining.
func (m *Mutation) Add(family, qualifier string, value []byte) *Mutation {
	m.Cells = append(m.Cells, Cell{Family: family, Qualifier: qualifier, Value: value})
	return m
}

// AddString is Add for string values.
func (m *Mutation) AddString(family, qualifier, value string) *Mutation {
	return m.Add(family, qualifier, []byte(value))
}

// ScanOptions selects the rows and cells a scan returns.
type ScanOptions struct {
	// Start is the inclusive lower bound. Nil means the first row.
	Start []byte

	// End is the exclusive upper bound. Nil means past the last row.
	End []byte

	// Families restricts the returned cells. Empty means all families.
	// Filtering happens before projection, so the predicate may reference
	// families that are not returned.
	Families []string

	// Filter restricts the returned rows. Nil means all rows.
	Filter queryir.Predicate
}

// ScanOption modifies ScanOptions.
type ScanOption func(*ScanOptions)

// WithFamilies projects scanned rows onto the given families.
func WithFamilies(families ...string) ScanOption {
	return func(o *ScanOptions) {
		o.Families = append(o.Families, families...)
	}
}

// WithFilter restricts a scan to rows matching p.
func WithFilter(p queryir.Predicate) ScanOption {
	return func(o *ScanOptions) {
		o.Filter = p
	}
}

// Validate reports malformed options.
func (o ScanOptions) Validate() error {
	if err := queryir.Validate(o.Filter); err != nil {
		return fmt.Errorf("scan filter: %w", err)
	}
	return nil
}

// Empty reports whether the bounds select no keys at all.
func (o ScanOptions) Empty() bool {
	return o.Start != nil && o.End != nil && string(o.Start) >= string(o.End)
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
