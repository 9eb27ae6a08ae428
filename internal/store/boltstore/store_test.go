package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/storetest"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "games.bolt"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

// A page size of one forces every Next across a transaction boundary.
func TestConformance_SmallPages(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t, WithPageSize(1))
	})
}

func TestCellsCodec(t *testing.T) {
	cells := []store.Cell{
		{Family: "d", Qualifier: "gid", Value: []byte("1")},
		{Family: "w", Qualifier: "name", Value: []byte{}},
	}
	got, err := decodeCells(encodeCells(cells))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "gid", got[0].Qualifier)
	assert.Equal(t, []byte("1"), got[0].Value)
	assert.Empty(t, got[1].Value)

	_, err = decodeCells([]byte{0xc1})
	assert.Error(t, err)
}

func TestReservedTableName(t *testing.T) {
	s := openTestStore(t)
	err := s.CreateTable(context.Background(), "__tables__", []string{"d"})
	assert.ErrorIs(t, err, store.ErrTableExists)
}

func TestScan_WriteDuringScan(t *testing.T) {
	s := openTestStore(t, WithPageSize(2))
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))
	for i := 1; i <= 5; i++ {
		m := store.NewMutation([]byte(fmt.Sprintf("0000000001:%010d", i))).AddString("d", "gid", fmt.Sprint(i))
		require.NoError(t, s.Put(ctx, "Games", *m))
	}

	cur, err := s.Scan(ctx, "Games", store.ScanOptions{})
	require.NoError(t, err)
	defer cur.Close()

	n := 0
	for cur.Next() {
		n++
		// A page is held in memory, not a transaction, so this must not block.
		m := store.NewMutation(cur.Row().Key).AddString("d", "seen", "yes")
		require.NoError(t, s.Put(ctx, "Games", *m))
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, 5, n)
}

func TestScan_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))
	cancel()

	_, err := s.Scan(ctx, "Games", store.ScanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.bolt")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.ErrorIs(t, s.CreateTable(ctx, "Games", []string{"d"}), store.ErrTableExists)
}
