// Package loader bulk-loads CSV game files into the games table.
//
// Every regular file under the load folder is read as CSV with a header
// line. A load makes two passes: the first parses and validates every row
// of every file, the second writes. A single malformed row therefore fails
// the whole load before anything is written.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scrabbledb/internal/keycodec"
	"github.com/roach88/scrabbledb/internal/metrics"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/schema"
	"github.com/roach88/scrabbledb/internal/store"
)

// DefaultBatchSize is the number of rows written per Put.
const DefaultBatchSize = 500

// ErrFolderNotFound is returned when the load folder does not exist or is
// not a directory.
var ErrFolderNotFound = errors.New("load folder not found")

// MalformedRecordError reports a row that cannot be loaded.
type MalformedRecordError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Result summarizes a finished load.
type Result struct {
	RunID uuid.UUID `json:"run_id" yaml:"run_id"`
	Files int       `json:"files" yaml:"files"`
	Rows  int       `json:"rows" yaml:"rows"`
}

// RunIDGenerator produces the id stamped on each load.
// Implemented by UUIDv7Generator (production) and testutil.FixedRunIDGenerator (tests).
type RunIDGenerator interface {
	Generate() uuid.UUID
}

// UUIDv7Generator generates time-ordered UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7, or a random UUID if the clock source fails.
func (UUIDv7Generator) Generate() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Loader writes CSV files into a table.
type Loader struct {
	table     *store.Table
	layout    *schema.Layout
	batchSize int
	logger    *slog.Logger
	metrics   metrics.Recorder
	runIDs    RunIDGenerator
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets how many rows are written per Put.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(l *Loader) {
		if r != nil {
			l.metrics = r
		}
	}
}

// WithRunIDGenerator sets the source of run ids.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(l *Loader) {
		if g != nil {
			l.runIDs = g
		}
	}
}

// New returns a Loader writing to table with the given layout.
func New(table *store.Table, layout *schema.Layout, opts ...Option) *Loader {
	l := &Loader{
		table:     table,
		layout:    layout,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		metrics:   metrics.Nop{},
		runIDs:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load validates and writes every file under folder.
func (l *Loader) Load(ctx context.Context, folder string) (Result, error) {
	res := Result{RunID: l.runIDs.Generate()}
	logger := l.logger.With("run_id", res.RunID.String())

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return res, fmt.Errorf("%s: %w", folder, ErrFolderNotFound)
	}

	files, err := listFiles(folder)
	if err != nil {
		return res, err
	}
	res.Files = len(files)
	logger.Info("load started", "folder", folder, "files", len(files))

	// Pass 1: validate.
	total := 0
	for _, path := range files {
		n := 0
		err := l.readFile(path, func(_ store.Mutation) error {
			n++
			return nil
		})
		if err != nil {
			return res, err
		}
		logger.Debug("file validated", "file", path, "rows", n)
		total += n
	}

	// Pass 2: write.
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := l.writeFile(ctx, path)
		res.Rows += n
		if err != nil {
			return res, err
		}
		logger.Info("file loaded", "file", path, "rows", n)
	}

	logger.Info("load finished", "files", res.Files, "rows", res.Rows)
	if res.Rows != total {
		return res, fmt.Errorf("wrote %d rows, validated %d: files changed during load", res.Rows, total)
	}
	return res, nil
}

func (l *Loader) writeFile(ctx context.Context, path string) (int, error) {
	written := 0
	batch := make([]store.Mutation, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.table.Put(ctx, batch...); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written += len(batch)
		l.metrics.RowsLoaded(len(batch))
		batch = batch[:0]
		return nil
	}

	err := l.readFile(path, func(m store.Mutation) error {
		batch = append(batch, m)
		if len(batch) == l.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, flush()
}

// readFile parses path and calls fn with the mutation of every data row.
func (l *Loader) readFile(path string, fn func(store.Mutation) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	// Header.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return malformed(path, err)
	}

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return malformed(path, err)
		}
		line, _ := r.FieldPos(0)

		m, err := l.mutation(fields)
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.File, mre.Line = path, line
			}
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
}

// mutation builds the write for one CSV record.
func (l *Loader) mutation(fields []string) (store.Mutation, error) {
	if len(fields) < l.layout.Width() {
		return store.Mutation{}, &MalformedRecordError{
			Reason: fmt.Sprintf("has %d fields, want at least %d", len(fields), l.layout.Width()),
		}
	}

	key, err := keycodec.GameKey(fields[l.layout.TourneyIndex], fields[l.layout.GameIndex])
	if err != nil {
		return store.Mutation{}, &MalformedRecordError{Reason: "bad row key", Err: err}
	}

	m := store.NewMutation([]byte(key))
	for _, c := range l.layout.Columns {
		v := fields[c.Index]
		switch c.Kind {
		case schema.KindID:
			if _, err := keycodec.Pad(v, keycodec.Width); err != nil {
				return store.Mutation{}, &MalformedRecordError{
					Reason: fmt.Sprintf("column %d (%s:%s)", c.Index, c.Family, c.Qualifier),
					Err:    err,
				}
			}
		case schema.KindBool:
			b, err := record.ParseTie(v)
			if err != nil {
				return store.Mutation{}, &MalformedRecordError{
					Reason: fmt.Sprintf("column %d (%s:%s)", c.Index, c.Family, c.Qualifier),
					Err:    err,
				}
			}
			v = record.FormatTie(b)
		default:
			v = norm.NFC.String(v)
		}
		m.AddString(c.Family, c.Qualifier, v)
	}
	return *m, nil
}

func malformed(path string, err error) error {
	mre := &MalformedRecordError{File: path, Reason: "invalid csv", Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		mre.Line = pe.Line
	}
	return mre
}

// listFiles returns every regular file under root in lexical order.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
