package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrabbledb/internal/keycodec"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/memstore"
	"github.com/roach88/scrabbledb/internal/testutil"
)

var ctx = context.Background()

func TestOpponents(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(5, 2, "Alice", "Carol"),
			testutil.Game(5, 1, "Alice", "Bob"),
			testutil.Game(5, 3, "Dan", "Alice"),
			// Tournament 50 shares the digit prefix "5" but not the key prefix.
			testutil.Game(50, 1, "Alice", "Zed"),
			testutil.Game(4, 1, "Alice", "Yan"),
		)
		e := New(tbl)

		got, err := e.Opponents(ctx, "5", "Alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob", "Carol"}, got)

		again, err := e.Opponents(ctx, "5", "Alice")
		require.NoError(t, err)
		assert.Equal(t, got, again, "queries are idempotent")

		padded, err := e.Opponents(ctx, "0000000005", "Alice")
		require.NoError(t, err)
		assert.Equal(t, got, padded)

		none, err := e.Opponents(ctx, "5", "Nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		empty, err := e.Opponents(ctx, "99", "Alice")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestOpponents_KeepsDuplicates(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(1, 1, "Alice", "Bob"),
			testutil.Game(1, 2, "Alice", "Bob"),
		)
		got, err := New(tbl).Opponents(ctx, "1", "Alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob", "Bob"}, got)
	})
}

func TestOpponents_MatchIsExact(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(1, 1, "alice", "Bob"),
			testutil.Game(1, 2, "Alice ", "Carol"),
			testutil.Game(1, 3, "Alice", "Dan"),
		)
		got, err := New(tbl).Opponents(ctx, "1", "Alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"Dan"}, got)
	})
}

func TestTies(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(7, 1, "A", "B"),
			testutil.TieGame(7, 3, "W1", "L1"),
			testutil.TieGame(8, 1, "W2", "L2"),
		)
		e := New(tbl)

		got, err := e.Ties(ctx, "7")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "3;W1;L1", got[0].String())

		again, err := e.Ties(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, got, again)

		none, err := e.Ties(ctx, "9")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestTies_GameOrder(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.TieGame(1, 10, "A", "B"),
			testutil.TieGame(1, 9, "C", "D"),
			testutil.TieGame(1, 100, "E", "F"),
		)
		got, err := New(tbl).Ties(ctx, "1")
		require.NoError(t, err)

		var ids []string
		for _, g := range got {
			ids = append(ids, g.GameID)
		}
		assert.Equal(t, []string{"9", "10", "100"}, ids)
	})
}

// streakGames is the two-tournament example: tournament 1 has A and B
// twice each; tournament 2 has A once and B and C twice.
func streakGames() []record.GameRecord {
	return []record.GameRecord{
		testutil.Game(1, 1, "A", "B"),
		testutil.Game(1, 2, "B", "A"),
		testutil.Game(2, 1, "B", "C"),
		testutil.Game(2, 2, "C", "B"),
		testutil.Game(2, 3, "A", "D"),
	}
}

func TestRepeatPlayers_Streak(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl, streakGames()...)
		e := New(tbl)

		got, err := e.RepeatPlayers(ctx, "1", "2")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, got)

		only1, err := e.RepeatPlayers(ctx, "1", "1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, only1)

		only2, err := e.RepeatPlayers(ctx, "2", "2")
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, only2)
	})
}

func TestRepeatPlayers_HalfOpen(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl, streakGames()...)
		e := New(tbl, WithHalfOpenRange())

		got, err := e.RepeatPlayers(ctx, "1", "2")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got, "tournament 2 is excluded")

		got, err = e.RepeatPlayers(ctx, "1", "3")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, got)

		got, err = e.RepeatPlayers(ctx, "1", "1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRepeatPlayers_SingleTournament(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(2, 1, "X", "Y"),
			testutil.Game(3, 1, "P", "Q"),
			testutil.Game(3, 2, "P", "R"),
			testutil.Game(3, 3, "S", "Q"),
			testutil.Game(4, 1, "R", "S"),
		)
		got, err := New(tbl).RepeatPlayers(ctx, "3", "3")
		require.NoError(t, err)
		assert.Equal(t, []string{"P", "Q"}, got)
	})
}

func TestRepeatPlayers_Ranges(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl,
			testutil.Game(1, 1, "10", "9"),
			testutil.Game(1, 2, "9", "2"),
			testutil.Game(1, 3, "2", "10"),
			// Tournament 2 has no games; 3 continues the chain.
			testutil.Game(3, 1, "10", "2"),
			testutil.Game(3, 2, "2", "10"),
		)
		e := New(tbl)

		got, err := e.RepeatPlayers(ctx, "1", "1")
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "9", "10"}, got, "numeric order")

		got, err = e.RepeatPlayers(ctx, "1", "3")
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "10"}, got)

		got, err = e.RepeatPlayers(ctx, "2", "3")
		require.NoError(t, err)
		assert.Empty(t, got, "first tournament without games admits nobody")

		got, err = e.RepeatPlayers(ctx, "3", "1")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		got, err = e.RepeatPlayers(ctx, "0000000001", "03")
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "10"}, got)
	})
}

func TestGames(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		seeded := []record.GameRecord{
			testutil.Game(1, 1, "A", "B"),
			testutil.TieGame(1, 2, "C", "D"),
		}
		testutil.Seed(t, tbl, append(seeded, testutil.Game(2, 1, "E", "F"))...)
		e := New(tbl)

		var got []record.GameRecord
		require.NoError(t, e.Games(ctx, "1", func(g record.GameRecord) error {
			got = append(got, g)
			return nil
		}))
		assert.Equal(t, seeded, got)

		stop := errors.New("stop")
		calls := 0
		err := e.Games(ctx, "1", func(record.GameRecord) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestInvalidArguments(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl)
		e := New(tbl)

		_, err := e.Opponents(ctx, "abc", "Alice")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = e.Ties(ctx, "-1")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = e.Ties(ctx, "12345678901")
		assert.ErrorIs(t, err, keycodec.ErrIDTooWide)

		_, err = e.RepeatPlayers(ctx, "1", "x")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, QueryRepeat, qe.Query)
	})
}

func TestMissingTable(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		_, err := New(tbl).Opponents(ctx, "1", "Alice")
		assert.ErrorIs(t, err, store.ErrTableNotFound)
	})
}

type recordedQuery struct {
	name string
	rows int
}

type fakeRecorder struct {
	queries []recordedQuery
}

func (f *fakeRecorder) QueryCompleted(query string, rows int, _ time.Duration) {
	f.queries = append(f.queries, recordedQuery{query, rows})
}

func (f *fakeRecorder) RowsLoaded(int) {}

func TestMetricsRecorded(t *testing.T) {
	testutil.ForEachBackend(t, func(t *testing.T, tbl *store.Table) {
		testutil.Seed(t, tbl, streakGames()...)
		rec := &fakeRecorder{}
		e := New(tbl, WithMetrics(rec))

		_, err := e.Opponents(ctx, "1", "A")
		require.NoError(t, err)
		_, err = e.RepeatPlayers(ctx, "1", "2")
		require.NoError(t, err)

		assert.Equal(t, []recordedQuery{
			{QueryOpponents, 1},
			{QueryRepeat, 5},
		}, rec.queries)
	})
}

func TestNew_LogsToDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tbl := store.NewTable(memstore.New(), record.DefaultTable)
	testutil.Seed(t, tbl, testutil.TieGame(1, 1, "A", "B"))

	_, err := New(tbl).Ties(ctx, "1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query finished")
	assert.Contains(t, buf.String(), "query=query3")
}
