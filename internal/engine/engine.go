package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/roach88/scrabbledb/internal/keycodec"
	"github.com/roach88/scrabbledb/internal/metrics"
	"github.com/roach88/scrabbledb/internal/queryir"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/store"
)

// Query names used in logs and metrics.
const (
	QueryOpponents = "query1"
	QueryRepeat    = "query2"
	QueryTies      = "query3"
	QueryGames     = "games"
)

// Engine runs queries against one games table.
type Engine struct {
	table    *store.Table
	logger   *slog.Logger
	metrics  metrics.Recorder
	halfOpen bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder. Default: metrics.Nop.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// WithHalfOpenRange makes RepeatPlayers scan [first, last) instead of
// [first, last]: games of the last tournament are not read.
func WithHalfOpenRange() Option {
	return func(e *Engine) {
		e.halfOpen = true
	}
}

// New returns an Engine reading table.
func New(table *store.Table, opts ...Option) *Engine {
	e := &Engine{
		table:   table,
		logger:  slog.Default(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Opponents returns the loser ids of every game in tourneyID won by the
// player named winnerName, in game order. Duplicates are kept.
func (e *Engine) Opponents(ctx context.Context, tourneyID, winnerName string) ([]string, error) {
	start := time.Now()
	prefix, err := tourneyPrefix(tourneyID)
	if err != nil {
		return nil, queryErr(QueryOpponents, err)
	}

	cur, err := e.table.ScanPrefix(ctx, prefix,
		store.WithFamilies(record.FamilyLoser),
		store.WithFilter(queryir.Equals(record.FamilyWinner, record.Name, winnerName)),
	)
	if err != nil {
		return nil, queryErr(QueryOpponents, err)
	}

	opponents := []string{}
	n, err := drain(cur, func(row store.Row) error {
		opponents = append(opponents, row.String(record.FamilyLoser, record.PlayerID))
		return nil
	})
	e.observe(QueryOpponents, n, start, "tourney", tourneyID, "winner", winnerName, "results", len(opponents))
	if err != nil {
		return nil, queryErr(QueryOpponents, err)
	}
	return opponents, nil
}

// Ties returns the tied games of tourneyID in game order.
func (e *Engine) Ties(ctx context.Context, tourneyID string) ([]record.TieGame, error) {
	start := time.Now()
	prefix, err := tourneyPrefix(tourneyID)
	if err != nil {
		return nil, queryErr(QueryTies, err)
	}

	cur, err := e.table.ScanPrefix(ctx, prefix,
		store.WithFilter(queryir.Equals(record.FamilyInfo, record.Tie, record.TieTrue)),
	)
	if err != nil {
		return nil, queryErr(QueryTies, err)
	}

	ties := []record.TieGame{}
	n, err := drain(cur, func(row store.Row) error {
		ties = append(ties, record.TieGame{
			GameID:   row.String(record.FamilyInfo, record.GameID),
			WinnerID: row.String(record.FamilyWinner, record.PlayerID),
			LoserID:  row.String(record.FamilyLoser, record.PlayerID),
		})
		return nil
	})
	e.observe(QueryTies, n, start, "tourney", tourneyID, "results", len(ties))
	if err != nil {
		return nil, queryErr(QueryTies, err)
	}
	return ties, nil
}

// RepeatPlayers returns, sorted, the players that appeared in at least two
// games of every tournament from first through last that has games.
// See RepeatTracker for the exact rule. The range includes last unless
// the Engine was built WithHalfOpenRange. first > last yields no players.
func (e *Engine) RepeatPlayers(ctx context.Context, first, last string) ([]string, error) {
	start := time.Now()
	lo, err := parseTourney(first)
	if err != nil {
		return nil, queryErr(QueryRepeat, fmt.Errorf("first tourney: %w", err))
	}
	hi, err := parseTourney(last)
	if err != nil {
		return nil, queryErr(QueryRepeat, fmt.Errorf("last tourney: %w", err))
	}
	first, last = strconv.FormatUint(lo, 10), strconv.FormatUint(hi, 10)

	if lo > hi {
		e.logger.Debug("empty tourney range", "first", first, "last", last)
		return []string{}, nil
	}

	startKey, endKey, err := keycodec.RangeBounds(first, last)
	if err != nil {
		return nil, queryErr(QueryRepeat, err)
	}
	if !e.halfOpen {
		p, err := keycodec.PrefixFor(last)
		if err != nil {
			return nil, queryErr(QueryRepeat, err)
		}
		endKey = string(store.PrefixEnd([]byte(p)))
	}

	cur, err := e.table.ScanRange(ctx, []byte(startKey), []byte(endKey),
		store.WithFamilies(record.FamilyWinner, record.FamilyLoser),
	)
	if err != nil {
		return nil, queryErr(QueryRepeat, err)
	}

	tracker := NewRepeatTracker(first)
	n, err := drain(cur, func(row store.Row) error {
		tourney, err := keycodec.TourneyOf(string(row.Key))
		if err != nil {
			return err
		}
		tracker.Observe(tourney,
			row.String(record.FamilyWinner, record.PlayerID),
			row.String(record.FamilyLoser, record.PlayerID),
		)
		return nil
	})
	result := tracker.Result()
	e.observe(QueryRepeat, n, start, "first", first, "last", last, "half_open", e.halfOpen, "results", len(result))
	if err != nil {
		return nil, queryErr(QueryRepeat, err)
	}
	return result, nil
}

// Games calls fn with every game of tourneyID in game order. A non-nil
// error from fn stops the scan and is returned.
func (e *Engine) Games(ctx context.Context, tourneyID string, fn func(record.GameRecord) error) error {
	start := time.Now()
	prefix, err := tourneyPrefix(tourneyID)
	if err != nil {
		return queryErr(QueryGames, err)
	}

	cur, err := e.table.ScanPrefix(ctx, prefix)
	if err != nil {
		return queryErr(QueryGames, err)
	}

	n, err := drain(cur, func(row store.Row) error {
		g, err := record.FromRow(row)
		if err != nil {
			return fmt.Errorf("row %q: %w", row.Key, err)
		}
		return fn(g)
	})
	e.observe(QueryGames, n, start, "tourney", tourneyID)
	return queryErr(QueryGames, err)
}

func (e *Engine) observe(query string, rows int, start time.Time, attrs ...any) {
	elapsed := time.Since(start)
	e.metrics.QueryCompleted(query, rows, elapsed)
	e.logger.Debug("query finished",
		append([]any{"query", query, "rows_scanned", rows, "elapsed", elapsed}, attrs...)...)
}

// drain feeds every row of cur to fn, closes cur and returns the number
// of rows read.
func drain(cur store.Cursor, fn func(store.Row) error) (n int, err error) {
	defer func() {
		err = multierr.Append(err, cur.Close())
	}()

	for cur.Next() {
		n++
		if err := fn(cur.Row()); err != nil {
			return n, err
		}
	}
	return n, cur.Err()
}

func tourneyPrefix(tourneyID string) ([]byte, error) {
	id, err := parseTourney(tourneyID)
	if err != nil {
		return nil, err
	}
	p, err := keycodec.PrefixFor(strconv.FormatUint(id, 10))
	if err != nil {
		return nil, err
	}
	return []byte(p), nil
}

// parseTourney accepts a decimal tourney id, padded or not.
func parseTourney(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tourney id %q: %w", s, ErrInvalidArgument)
	}
	return id, nil
}
