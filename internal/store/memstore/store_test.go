package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestScan_IsSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))
	require.NoError(t, s.Put(ctx, "Games",
		*store.NewMutation([]byte("a")).AddString("d", "v", "1"),
		*store.NewMutation([]byte("c")).AddString("d", "v", "1"),
	))

	cur, err := s.Scan(ctx, "Games", store.ScanOptions{})
	require.NoError(t, err)
	defer cur.Close()

	require.NoError(t, s.Put(ctx, "Games",
		*store.NewMutation([]byte("b")).AddString("d", "v", "2"),
		*store.NewMutation([]byte("a")).AddString("d", "v", "2"),
	))

	var got []string
	for cur.Next() {
		got = append(got, string(cur.Row().Key)+"="+cur.Row().String("d", "v"))
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []string{"a=1", "c=1"}, got)
}

func TestPut_CopiesCallerBuffers(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))

	key := []byte("k")
	val := []byte("before")
	require.NoError(t, s.Put(ctx, "Games", *store.NewMutation(key).Add("d", "v", val)))
	key[0] = 'z'
	copy(val, "after!")

	cur, err := s.Scan(ctx, "Games", store.ScanOptions{})
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	assert.Equal(t, "k", string(cur.Row().Key))
	assert.Equal(t, "before", cur.Row().String("d", "v"))
}

func TestPut_FailedPutWritesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "Games", []string{"d"}))

	err := s.Put(ctx, "Games",
		*store.NewMutation([]byte("a")).AddString("d", "v", "1"),
		*store.NewMutation([]byte("b")).AddString("x", "v", "1"),
	)
	require.ErrorIs(t, err, store.ErrUnknownFamily)

	cur, err := s.Scan(ctx, "Games", store.ScanOptions{})
	require.NoError(t, err)
	defer cur.Close()
	assert.False(t, cur.Next())
}

func TestClosed(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.CreateTable(context.Background(), "Games", nil), store.ErrClosed)
}
