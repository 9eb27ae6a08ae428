// Package memstore is an in-memory store.Store built on B-trees.
//
// Rows are immutable once inserted: Put replaces a row with a merged copy.
// Scans iterate a copy-on-write clone of the table taken when the scan
// starts, so they see a consistent snapshot while writes continue.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/roach88/scrabbledb/internal/store"
)

const degree = 32

type entry struct {
	key   []byte
	cells []store.Cell
}

func less(a, b *entry) bool { return bytes.Compare(a.key, b.key) < 0 }

type table struct {
	families map[string]bool
	rows     *btree.BTreeG[*entry]
}

// Store is a store.Store held entirely in memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	closed bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{tables: map[string]*table{}}
}

func (s *Store) CreateTable(ctx context.Context, name string, families []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("create table %s: %w", name, store.ErrTableExists)
	}

	t := &table{families: map[string]bool{}, rows: btree.NewG(degree, less)}
	for _, f := range families {
		t.families[f] = true
	}
	s.tables[name] = t
	return nil
}

func (s *Store) Put(ctx context.Context, tableName string, muts ...store.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	t, ok := s.tables[tableName]
	if !ok {
		return fmt.Errorf("put %s: %w", tableName, store.ErrTableNotFound)
	}

	// Validate everything first so a failed Put writes nothing.
	for _, m := range muts {
		for _, c := range m.Cells {
			if !t.families[c.Family] {
				return fmt.Errorf("put %s family %q: %w", tableName, c.Family, store.ErrUnknownFamily)
			}
		}
	}

	for _, m := range muts {
		key := append([]byte(nil), m.Key...)
		var base []store.Cell
		if old, ok := t.rows.Get(&entry{key: key}); ok {
			base = old.cells
		}
		cells := store.MergeCells(base, m.Cells)
		for i := range cells {
			cells[i].Value = append([]byte(nil), cells[i].Value...)
		}
		t.rows.ReplaceOrInsert(&entry{key: key, cells: cells})
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, tableName string, opts store.ScanOptions) (store.Cursor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Clone mutates the source tree's copy-on-write state, so take the
	// write lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	t, ok := s.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("scan %s: %w", tableName, store.ErrTableNotFound)
	}
	if opts.Empty() {
		return store.NewSliceCursor(nil), nil
	}

	c := &cursor{
		ctx:   ctx,
		rows:  t.rows.Clone(),
		start: opts.Start,
		end:   opts.End,
	}
	return store.Refine(c, opts), nil
}

// Close drops all tables.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tables = nil
	return nil
}
