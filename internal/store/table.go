package store

import "context"

// Table is a handle binding a Store to one table name. It is the value the
// engine and loader are constructed with; there is no global connection.
type Table struct {
	store Store
	name  string
}

// NewTable returns a handle for table name in s.
func NewTable(s Store, name string) *Table {
	return &Table{store: s, name: name}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Create creates the table with the given families.
func (t *Table) Create(ctx context.Context, families []string) error {
	return t.store.CreateTable(ctx, t.name, families)
}

// Put writes mutations to the table.
func (t *Table) Put(ctx context.Context, muts ...Mutation) error {
	return t.store.Put(ctx, t.name, muts...)
}

// ScanPrefix returns every row whose key starts with prefix.
func (t *Table) ScanPrefix(ctx context.Context, prefix []byte, opts ...ScanOption) (Cursor, error) {
	o := ScanOptions{Start: prefix, End: PrefixEnd(prefix)}
	for _, opt := range opts {
		opt(&o)
	}
	return t.store.Scan(ctx, t.name, o)
}

// ScanRange returns every row with start <= key < end.
func (t *Table) ScanRange(ctx context.Context, start, end []byte, opts ...ScanOption) (Cursor, error) {
	o := ScanOptions{Start: start, End: end}
	for _, opt := range opts {
		opt(&o)
	}
	return t.store.Scan(ctx, t.name, o)
}
