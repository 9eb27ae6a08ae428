// Package boltstore implements store.Store on a bbolt file.
//
// Each table is a top-level bucket keyed by row key. A row's cells are
// stored as one MessagePack array of alternating family, qualifier and
// value entries. Table metadata lives in the __tables__ bucket.
package boltstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tinylib/msgp/msgp"
	bolt "go.etcd.io/bbolt"

	"github.com/roach88/scrabbledb/internal/store"
)

var metaBucket = []byte("__tables__")

// Store is a store.Store backed by bbolt.
type Store struct {
	path string
	db   *bolt.DB

	// pageSize bounds the rows read per read transaction during a scan.
	pageSize int
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets how many rows a scan reads per transaction.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Open creates the bolt file if it doesn't exist and opens it otherwise.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("unable to create directory %s: %v: %w", path, err, store.ErrUnavailable)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open boltdb file: %v: %w", err, store.ErrUnavailable)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init meta bucket: %v: %w", err, store.ErrUnavailable)
	}

	s := &Store{path: path, db: db, pageSize: 256}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close the connection to the bolt database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// CreateTable creates the table bucket and records its families.
func (s *Store) CreateTable(ctx context.Context, name string, families []string) error {
	if s.db == nil {
		return store.ErrClosed
	}
	if name == string(metaBucket) {
		return fmt.Errorf("create table %s: reserved name: %w", name, store.ErrTableExists)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta.Get([]byte(name)) != nil {
			return fmt.Errorf("create table %s: %w", name, store.ErrTableExists)
		}
		if _, err := tx.CreateBucket([]byte(name)); err != nil {
			return fmt.Errorf("create table %s: %v: %w", name, err, store.ErrUnavailable)
		}
		if err := meta.Put([]byte(name), encodeFamilies(families)); err != nil {
			return fmt.Errorf("create table %s: %v: %w", name, err, store.ErrUnavailable)
		}
		return nil
	})
}

// Put merges each mutation into the stored row in one update transaction.
func (s *Store) Put(ctx context.Context, table string, muts ...store.Mutation) error {
	if s.db == nil {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		families, b, err := openTable(tx, table)
		if err != nil {
			return err
		}

		for _, m := range muts {
			for _, c := range m.Cells {
				if !families[c.Family] {
					return fmt.Errorf("put %s family %q: %w", table, c.Family, store.ErrUnknownFamily)
				}
			}

			var existing []store.Cell
			if v := b.Get(m.Key); v != nil {
				if existing, err = decodeCells(v); err != nil {
					return fmt.Errorf("put row %q: %w", m.Key, err)
				}
			}
			merged := store.MergeCells(existing, m.Cells)
			if err := b.Put(m.Key, encodeCells(merged)); err != nil {
				return fmt.Errorf("put row %q: %v: %w", m.Key, err, store.ErrUnavailable)
			}
		}
		return nil
	})
}

// Scan returns a cursor over [opts.Start, opts.End). Rows are read in
// pages, each page in its own read transaction, so writers are never
// blocked for the length of a scan.
func (s *Store) Scan(ctx context.Context, table string, opts store.ScanOptions) (store.Cursor, error) {
	if s.db == nil {
		return nil, store.ErrClosed
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.db.View(func(tx *bolt.Tx) error {
		_, _, err := openTable(tx, table)
		return err
	}); err != nil {
		return nil, err
	}

	if opts.Empty() {
		return store.NewSliceCursor(nil), nil
	}

	c := &cursor{
		ctx:   ctx,
		db:    s.db,
		table: []byte(table),
		seek:  opts.Start,
		end:   opts.End,
		page:  s.pageSize,
	}
	return store.Refine(c, opts), nil
}

func openTable(tx *bolt.Tx, table string) (map[string]bool, *bolt.Bucket, error) {
	raw := tx.Bucket(metaBucket).Get([]byte(table))
	b := tx.Bucket([]byte(table))
	if raw == nil || b == nil {
		return nil, nil, fmt.Errorf("table %s: %w", table, store.ErrTableNotFound)
	}
	families, err := decodeFamilies(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("table %s: %w", table, err)
	}
	set := make(map[string]bool, len(families))
	for _, f := range families {
		set[f] = true
	}
	return set, b, nil
}

func encodeFamilies(families []string) []byte {
	b := msgp.AppendArrayHeader(nil, uint32(len(families)))
	for _, f := range families {
		b = msgp.AppendString(b, f)
	}
	return b
}

func decodeFamilies(b []byte) ([]string, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("decode families: %w", err)
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		var f string
		if f, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, fmt.Errorf("decode families: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}

func encodeCells(cells []store.Cell) []byte {
	b := msgp.AppendArrayHeader(nil, uint32(len(cells)*3))
	for _, c := range cells {
		b = msgp.AppendString(b, c.Family)
		b = msgp.AppendString(b, c.Qualifier)
		b = msgp.AppendBytes(b, c.Value)
	}
	return b
}

// decodeCells copies every value out of b; bolt memory is only valid
// inside its transaction.
func decodeCells(b []byte) ([]store.Cell, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	if n%3 != 0 {
		return nil, fmt.Errorf("decode cells: array length %d is not a multiple of 3", n)
	}
	cells := make([]store.Cell, 0, n/3)
	for i := uint32(0); i < n; i += 3 {
		var c store.Cell
		if c.Family, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, fmt.Errorf("decode cells: %w", err)
		}
		if c.Qualifier, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, fmt.Errorf("decode cells: %w", err)
		}
		if c.Value, b, err = msgp.ReadBytesBytes(b, nil); err != nil {
			return nil, fmt.Errorf("decode cells: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, nil
}
