// Package store defines the ordered key-value contract the query engine
// reads from and the loader writes to.
//
// The model is a wide-column table: rows are addressed by a byte key, kept
// in ascending key order, and hold cells grouped into column families
// (family:qualifier → value). Three backends implement Store:
//
//   - sqlitestore: SQLite via mattn/go-sqlite3; pushes predicates down to SQL
//   - boltstore: bbolt file; one bucket per table, msgp-encoded rows
//   - memstore: google/btree in memory; scans read a copy-on-write snapshot
//
// # Scans
//
// Scan yields rows with Start <= key < End (nil bounds are open) in
// ascending key order through a pull Cursor. ScanOptions may project the
// row onto a subset of families and carry a queryir.Predicate. Backends
// that cannot evaluate the predicate natively wrap their raw cursor with
// Refine, which applies the predicate before projection, so results are
// identical across backends.
//
// # Cursor lifecycle
//
// Next blocks until a row is available or the scan is exhausted. Close is
// terminal: after Close, Next returns false and Err returns nil, exactly as
// if the scan had reached its end. Callers must always Close.
package store
