// Package storetest is a conformance suite run by every store backend.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/queryir"
	"github.com/roach88/scrabbledb/internal/store"
)

// OpenFunc returns a fresh, empty store. The suite closes it.
type OpenFunc func(t *testing.T) store.Store

const table = "Games"

var families = []string{"d", "w", "l"}

// Run executes the conformance suite against stores returned by open.
func Run(t *testing.T, open OpenFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateTableTwice", testCreateTableTwice},
		{"PutUnknownTable", testPutUnknownTable},
		{"PutUnknownFamily", testPutUnknownFamily},
		{"ScanUnknownTable", testScanUnknownTable},
		{"ScanOrder", testScanOrder},
		{"ScanPrefix", testScanPrefix},
		{"ScanRangeHalfOpen", testScanRangeHalfOpen},
		{"EmptyRange", testEmptyRange},
		{"Projection", testProjection},
		{"Filter", testFilter},
		{"FilterOnUnprojectedFamily", testFilterOnUnprojectedFamily},
		{"PutOverwrites", testPutOverwrites},
		{"CloseIsTerminal", testCloseIsTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustCreate(t *testing.T, s store.Store) {
	t.Helper()
	require.NoError(t, s.CreateTable(context.Background(), table, families))
}

func game(tourney, gameID int, winner, loser, tie string) store.Mutation {
	key := fmt.Sprintf("%010d:%010d", tourney, gameID)
	m := store.NewMutation([]byte(key))
	m.AddString("d", "gid", fmt.Sprint(gameID)).
		AddString("d", "tid", fmt.Sprint(tourney)).
		AddString("d", "tie", tie).
		AddString("w", "name", winner).
		AddString("w", "id", winner+"-id").
		AddString("l", "name", loser).
		AddString("l", "id", loser+"-id")
	return *m
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	mustCreate(t, s)
	// Deliberately written out of key order.
	require.NoError(t, s.Put(context.Background(), table,
		game(10, 2, "Alice", "Carol", "False"),
		game(9, 1, "Bob", "Dan", "True"),
		game(10, 1, "Alice", "Bob", "False"),
		game(11, 1, "Carol", "Alice", "True"),
		game(10, 3, "Dan", "Alice", "True"),
	))
}

func collect(t *testing.T, cur store.Cursor) []store.Row {
	t.Helper()
	defer cur.Close()
	var rows []store.Row
	for cur.Next() {
		rows = append(rows, cur.Row())
	}
	require.NoError(t, cur.Err())
	return rows
}

func keys(rows []store.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r.Key)
	}
	return out
}

func testCreateTableTwice(t *testing.T, s store.Store) {
	mustCreate(t, s)
	err := s.CreateTable(context.Background(), table, families)
	assert.ErrorIs(t, err, store.ErrTableExists)
}

func testPutUnknownTable(t *testing.T, s store.Store) {
	err := s.Put(context.Background(), "Nope", game(1, 1, "a", "b", "False"))
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func testPutUnknownFamily(t *testing.T, s store.Store) {
	mustCreate(t, s)
	m := store.NewMutation([]byte("k")).AddString("x", "q", "v")
	err := s.Put(context.Background(), table, *m)
	assert.ErrorIs(t, err, store.ErrUnknownFamily)
}

func testScanUnknownTable(t *testing.T, s store.Store) {
	_, err := s.Scan(context.Background(), "Nope", store.ScanOptions{})
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func testScanOrder(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := s.Scan(context.Background(), table, store.ScanOptions{})
	require.NoError(t, err)

	rows := collect(t, cur)
	assert.Equal(t, []string{
		"0000000009:0000000001",
		"0000000010:0000000001",
		"0000000010:0000000002",
		"0000000010:0000000003",
		"0000000011:0000000001",
	}, keys(rows))
	assert.Equal(t, "Bob", rows[0].String("w", "name"))
	assert.Len(t, rows[0].Cells, 7)
}

func testScanPrefix(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := store.NewTable(s, table).ScanPrefix(context.Background(), []byte("0000000010:"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0000000010:0000000001",
		"0000000010:0000000002",
		"0000000010:0000000003",
	}, keys(collect(t, cur)))
}

func testScanRangeHalfOpen(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := store.NewTable(s, table).ScanRange(context.Background(),
		[]byte("0000000009:0000000000"), []byte("0000000011:0000000000"))
	require.NoError(t, err)

	got := keys(collect(t, cur))
	assert.Len(t, got, 4)
	assert.NotContains(t, got, "0000000011:0000000001")
}

func testEmptyRange(t *testing.T, s store.Store) {
	seed(t, s)
	tbl := store.NewTable(s, table)

	cur, err := tbl.ScanRange(context.Background(), []byte("0000000011:"), []byte("0000000010:"))
	require.NoError(t, err)
	assert.Empty(t, collect(t, cur))

	cur, err = tbl.ScanPrefix(context.Background(), []byte("0000000099:"))
	require.NoError(t, err)
	assert.Empty(t, collect(t, cur))
}

func testProjection(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := store.NewTable(s, table).ScanPrefix(context.Background(), []byte("0000000010:"),
		store.WithFamilies("l"))
	require.NoError(t, err)

	for _, row := range collect(t, cur) {
		require.Len(t, row.Cells, 2)
		for _, c := range row.Cells {
			assert.Equal(t, "l", c.Family)
		}
	}
}

func testFilter(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := store.NewTable(s, table).ScanPrefix(context.Background(), []byte("0000000010:"),
		store.WithFilter(queryir.Equals("w", "name", "Alice")))
	require.NoError(t, err)

	rows := collect(t, cur)
	assert.Equal(t, []string{"0000000010:0000000001", "0000000010:0000000002"}, keys(rows))
	assert.Equal(t, "Bob-id", rows[0].String("l", "id"))
	assert.Equal(t, "Carol-id", rows[1].String("l", "id"))
}

func testFilterOnUnprojectedFamily(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := s.Scan(context.Background(), table, store.ScanOptions{
		Families: []string{"w", "l"},
		Filter: queryir.AllOf(
			queryir.Equals("d", "tie", "True"),
			queryir.Equals("l", "name", "Alice"),
		),
	})
	require.NoError(t, err)

	rows := collect(t, cur)
	assert.Equal(t, []string{"0000000010:0000000003", "0000000011:0000000001"}, keys(rows))
	for _, row := range rows {
		_, ok := row.Value("d", "tie")
		assert.False(t, ok)
		assert.NotEmpty(t, row.String("w", "id"))
	}
}

func testPutOverwrites(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()
	m := store.NewMutation([]byte("0000000009:0000000001")).AddString("w", "name", "Robert")
	require.NoError(t, s.Put(ctx, table, *m))
	require.NoError(t, s.Put(ctx, table, *m))

	cur, err := store.NewTable(s, table).ScanPrefix(ctx, []byte("0000000009:"))
	require.NoError(t, err)
	rows := collect(t, cur)
	require.Len(t, rows, 1)
	assert.Equal(t, "Robert", rows[0].String("w", "name"))
	assert.Equal(t, "Dan", rows[0].String("l", "name"), "untouched cells survive")
	assert.Len(t, rows[0].Cells, 7)
}

func testCloseIsTerminal(t *testing.T, s store.Store) {
	seed(t, s)
	cur, err := s.Scan(context.Background(), table, store.ScanOptions{})
	require.NoError(t, err)

	require.True(t, cur.Next())
	require.NoError(t, cur.Close())
	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
	assert.NoError(t, cur.Close(), "second close is a no-op")
}
