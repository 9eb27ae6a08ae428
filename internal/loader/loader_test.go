package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/keycodec"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/schema"
	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/memstore"
)

const header = "gameid,tourneyid,tie,winnerid,winnername,winnerscore,winneroldrating,winnernewrating,winnerpos," +
	"loserid,losername,loserscore,loseroldrating,losernewrating,loserpos,round,division,date,lexicon\n"

func csvRow(gid, tid, tie, wid, wname, lid, lname string) string {
	return strings.Join([]string{
		gid, tid, tie,
		wid, wname, "400", "1500", "1510", "1",
		lid, lname, "350", "1490", "1480", "2",
		"3", "A", "2019-05-04", "CSW19",
	}, ",") + "\n"
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTable(t *testing.T) *store.Table {
	t.Helper()
	s := memstore.New()
	t.Cleanup(func() { s.Close() })
	tbl := store.NewTable(s, record.DefaultTable)
	require.NoError(t, tbl.Create(context.Background(), record.Families))
	return tbl
}

func scanAll(t *testing.T, tbl *store.Table) []store.Row {
	t.Helper()
	cur, err := tbl.ScanRange(context.Background(), nil, nil)
	require.NoError(t, err)
	defer cur.Close()
	var rows []store.Row
	for cur.Next() {
		rows = append(rows, cur.Row())
	}
	require.NoError(t, cur.Err())
	return rows
}

type countingRecorder struct {
	batches []int
}

func (c *countingRecorder) QueryCompleted(string, int, time.Duration) {}
func (c *countingRecorder) RowsLoaded(n int)                          { c.batches = append(c.batches, n) }

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), header+
		csvRow("1", "10", "False", "W1", "Alice", "L1", "Bob")+
		csvRow("2", "10", "true", "W1", "Alice", "L2", "Carol"))
	writeFile(t, filepath.Join(dir, "nested", "b.csv"), header+
		csvRow("1", "9", "1", "W3", "Dan", "L1", "Bob"))

	tbl := newTable(t)
	res, err := New(tbl, schema.Default()).Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Rows)
	assert.NotEqual(t, [16]byte{}, [16]byte(res.RunID))

	rows := scanAll(t, tbl)
	require.Len(t, rows, 3)
	assert.Equal(t, "0000000009:0000000001", string(rows[0].Key))
	assert.Equal(t, "0000000010:0000000002", string(rows[2].Key))
	assert.Len(t, rows[0].Cells, 19)

	g, err := record.FromRow(rows[2])
	require.NoError(t, err)
	assert.True(t, g.Tie)
	assert.Equal(t, "Carol", g.Loser.Name)
	assert.Equal(t, "CSW19", g.Lexicon)
	assert.Equal(t, record.TieTrue, rows[0].String(record.FamilyInfo, record.Tie))
	assert.Equal(t, record.TieFalse, rows[1].String(record.FamilyInfo, record.Tie))
}

func TestLoad_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), header+csvRow("1", "10", "False", "W1", "Alice", "L1", "Bob"))

	tbl := newTable(t)
	l := New(tbl, schema.Default())
	_, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, scanAll(t, tbl), 1)
}

func TestLoad_FolderNotFound(t *testing.T) {
	tbl := newTable(t)
	l := New(tbl, schema.Default())

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrFolderNotFound)

	file := filepath.Join(t.TempDir(), "file.csv")
	writeFile(t, file, header)
	_, err = l.Load(context.Background(), file)
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr error
		reason  string
	}{
		{
			name:   "too few fields",
			row:    "1,10,False,W1\n",
			reason: "has 4 fields, want at least 19",
		},
		{
			name:    "non-numeric game id",
			row:     csvRow("x1", "10", "False", "W1", "Alice", "L1", "Bob"),
			wantErr: keycodec.ErrNotNumeric,
			reason:  "bad row key",
		},
		{
			name:    "tourney id too wide",
			row:     csvRow("1", "12345678901", "False", "W1", "Alice", "L1", "Bob"),
			wantErr: keycodec.ErrIDTooWide,
			reason:  "bad row key",
		},
		{
			name:   "bad tie flag",
			row:    csvRow("1", "10", "maybe", "W1", "Alice", "L1", "Bob"),
			reason: "column 2 (d:tie)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			// A valid file sorts first; it must not be written either.
			writeFile(t, filepath.Join(dir, "a.csv"), header+csvRow("1", "1", "False", "W", "A", "L", "B"))
			writeFile(t, filepath.Join(dir, "b.csv"), header+
				csvRow("2", "10", "False", "W1", "Alice", "L1", "Bob")+tt.row)

			tbl := newTable(t)
			_, err := New(tbl, schema.Default()).Load(context.Background(), dir)
			require.Error(t, err)

			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre), "got %v", err)
			assert.Equal(t, filepath.Join(dir, "b.csv"), mre.File)
			assert.Equal(t, 3, mre.Line)
			assert.Contains(t, mre.Reason, tt.reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Empty(t, scanAll(t, tbl))
		})
	}
}

func TestLoad_InvalidCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), header+`1,"10,False`+"\n")

	tbl := newTable(t)
	_, err := New(tbl, schema.Default()).Load(context.Background(), dir)

	var mre *MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "invalid csv", mre.Reason)
}

func TestLoad_EmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.csv"), "")
	writeFile(t, filepath.Join(dir, "header-only.csv"), header)

	res, err := New(newTable(t), schema.Default()).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 0, res.Rows)
}

func TestLoad_Batches(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString(header)
	for _, gid := range []string{"1", "2", "3", "4", "5"} {
		b.WriteString(csvRow(gid, "7", "False", "W", "A", "L", "B"))
	}
	writeFile(t, filepath.Join(dir, "games.csv"), b.String())

	rec := &countingRecorder{}
	tbl := newTable(t)
	res, err := New(tbl, schema.Default(), WithBatchSize(2), WithMetrics(rec)).Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, []int{2, 2, 1}, rec.batches)
	assert.Len(t, scanAll(t, tbl), 5)
}

func TestLoad_NormalizesText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), header+csvRow("1", "1", "False", "W", "Rene\u0301", "L", "B"))

	tbl := newTable(t)
	_, err := New(tbl, schema.Default()).Load(context.Background(), dir)
	require.NoError(t, err)

	rows := scanAll(t, tbl)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ren\u00e9", rows[0].String(record.FamilyWinner, record.Name))
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), header+csvRow("1", "1", "False", "W", "A", "L", "B"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl := newTable(t)
	_, err := New(tbl, schema.Default()).Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
