package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/boltstore"
	"github.com/roach88/scrabbledb/internal/store/memstore"
	"github.com/roach88/scrabbledb/internal/store/sqlitestore"
)

// Backend opens a fresh, empty store for one test.
type Backend struct {
	Name string
	Open func(t testing.TB) store.Store
}

// Backends returns every store implementation.
func Backends() []Backend {
	return []Backend{
		{Name: "memory", Open: func(t testing.TB) store.Store {
			return memstore.New()
		}},
		{Name: "sqlite", Open: func(t testing.TB) store.Store {
			s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "games.db"))
			require.NoError(t, err)
			return s
		}},
		{Name: "bolt", Open: func(t testing.TB) store.Store {
			s, err := boltstore.Open(filepath.Join(t.TempDir(), "games.bolt"))
			require.NoError(t, err)
			return s
		}},
	}
}

// ForEachBackend runs fn as a subtest per backend with an unseeded games
// table handle. The store is closed when the subtest ends.
func ForEachBackend(t *testing.T, fn func(t *testing.T, tbl *store.Table)) {
	t.Helper()
	for _, b := range Backends() {
		t.Run(b.Name, func(t *testing.T) {
			s := b.Open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, store.NewTable(s, record.DefaultTable))
		})
	}
}
