package store

import "errors"

var (
	// ErrUnavailable wraps failures of the underlying storage (open, put, scan).
	// Callers do not retry; it is surfaced as-is.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTableExists is returned by CreateTable when the table already exists.
	ErrTableExists = errors.New("table already exists")

	// ErrTableNotFound is returned when writing to or scanning an unknown table.
	ErrTableNotFound = errors.New("table not found")

	// ErrUnknownFamily is returned when a mutation names a family the table lacks.
	ErrUnknownFamily = errors.New("unknown column family")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)
