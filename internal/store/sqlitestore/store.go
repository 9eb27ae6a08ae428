// Package sqlitestore implements store.Store on SQLite.
//
// Every cell is one row of the cells table keyed by
// (table_name, row_key, family, qualifier). Scans are a single ordered
// SELECT streamed through *sql.Rows, with consecutive cells of the same
// row_key folded into one store.Row, so a scan never buffers more than one
// row. Predicates are pushed down to SQL by internal/querysql.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: cells must reference a declared family
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/scrabbledb/internal/querysql"
	"github.com/roach88/scrabbledb/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial cells schema
const currentSchemaVersion = 1

// Store is a store.Store backed by SQLite.
type Store struct {
	db       *sql.DB
	compiler *querysql.SQLCompiler
}

var _ store.Store = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %v: %w", err, store.ErrUnavailable)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %v: %w", err, store.ErrUnavailable)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %v: %w", err, store.ErrUnavailable)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %v: %w", err, store.ErrUnavailable)
	}

	return &Store{db: db, compiler: querysql.NewSQLCompiler()}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// CreateTable registers a table and its column families.
func (s *Store) CreateTable(ctx context.Context, name string, families []string) error {
	if s.db == nil {
		return store.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create table %s: begin tx: %v: %w", name, err, store.ErrUnavailable)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `INSERT INTO kv_tables (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("create table %s: %v: %w", name, err, store.ErrUnavailable)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("create table %s: %w", name, store.ErrTableExists)
	}

	for _, f := range families {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_families (table_name, family) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			name, f,
		); err != nil {
			return fmt.Errorf("create table %s: family %s: %v: %w", name, f, err, store.ErrUnavailable)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create table %s: commit: %v: %w", name, err, store.ErrUnavailable)
	}
	return nil
}

// Put upserts every cell of every mutation in a single transaction.
func (s *Store) Put(ctx context.Context, table string, muts ...store.Mutation) error {
	if s.db == nil {
		return store.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put: begin tx: %v: %w", err, store.ErrUnavailable)
	}
	defer tx.Rollback() // No-op if committed

	families, err := tableFamilies(ctx, tx, table)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (table_name, row_key, family, qualifier, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(table_name, row_key, family, qualifier) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("put: prepare: %v: %w", err, store.ErrUnavailable)
	}
	defer stmt.Close()

	for _, m := range muts {
		for _, c := range m.Cells {
			if !families[c.Family] {
				return fmt.Errorf("put %s family %q: %w", table, c.Family, store.ErrUnknownFamily)
			}
			value := c.Value
			if value == nil {
				value = []byte{}
			}
			if _, err := stmt.ExecContext(ctx, table, m.Key, c.Family, c.Qualifier, value); err != nil {
				return fmt.Errorf("put row %q: %v: %w", m.Key, err, store.ErrUnavailable)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put: commit: %v: %w", err, store.ErrUnavailable)
	}
	return nil
}

// Scan streams the cells selected by opts, grouped into rows.
func (s *Store) Scan(ctx context.Context, table string, opts store.ScanOptions) (store.Cursor, error) {
	if s.db == nil {
		return nil, store.ErrClosed
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM kv_tables WHERE name = ?`, table).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan %s: %w", table, store.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %v: %w", table, err, store.ErrUnavailable)
	}

	if opts.Empty() {
		return store.NewSliceCursor(nil), nil
	}

	query, params, err := s.compiler.Compile(querysql.Scan{
		Table:    table,
		Start:    opts.Start,
		End:      opts.End,
		Families: opts.Families,
		Filter:   opts.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %v: %w", table, err, store.ErrUnavailable)
	}
	return &cursor{rows: rows}, nil
}

// tableFamilies returns the declared families of table.
func tableFamilies(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT family FROM kv_families WHERE table_name = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("families of %s: %v: %w", table, err, store.ErrUnavailable)
	}
	defer rows.Close()

	families := map[string]bool{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("families of %s: %v: %w", table, err, store.ErrUnavailable)
		}
		families[f] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("families of %s: %v: %w", table, err, store.ErrUnavailable)
	}
	if len(families) == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM kv_tables WHERE name = ?`, table).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("put %s: %w", table, store.ErrTableNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("put %s: %v: %w", table, err, store.ErrUnavailable)
		}
	}
	return families, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema version.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
