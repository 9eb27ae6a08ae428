package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scrabbledb/internal/engine"
	"github.com/roach88/scrabbledb/internal/loader"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/schema"
	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/testutil"
)

// Harness runs scenario steps against one games table.
type Harness struct {
	table  *store.Table
	layout *schema.Layout
	logger *slog.Logger
}

// Run seeds s with the scenario's games, executes every step and
// evaluates the expectations. The caller owns s and closes it.
//
// Execution flow:
//  1. Create the games table (unless no_table)
//  2. Load the CSV folder, then write inline games
//  3. Execute steps in order, recording a trace event each
//  4. Check each step's expect clause
func Run(ctx context.Context, scenario *Scenario, s store.Store) (*Result, error) {
	h := &Harness{
		table:  store.NewTable(s, record.DefaultTable),
		layout: schema.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed table: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event := h.execute(ctx, step)
		event.Seq = int64(i + 1)
		result.Trace = append(result.Trace, event)

		for _, msg := range checkExpect(i, step, event) {
			result.AddError(msg)
		}
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	if scenario.NoTable {
		return nil
	}
	if err := h.table.Create(ctx, h.layout.Families); err != nil {
		return err
	}

	if scenario.CSV != "" {
		l := loader.New(h.table, h.layout,
			loader.WithLogger(h.logger),
			loader.WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")),
		)
		if _, err := l.Load(ctx, scenario.CSV); err != nil {
			return fmt.Errorf("load %s: %w", scenario.CSV, err)
		}
	}

	if len(scenario.Games) == 0 {
		return nil
	}
	muts := make([]store.Mutation, 0, len(scenario.Games))
	for i, g := range scenario.Games {
		game := testutil.Game(g.Tourney, g.Game, g.Winner, g.Loser)
		game.Tie = g.Tie
		m, err := game.Mutation()
		if err != nil {
			return fmt.Errorf("games[%d]: %w", i, err)
		}
		muts = append(muts, m)
	}
	return h.table.Put(ctx, muts...)
}

func (h *Harness) execute(ctx context.Context, step Step) TraceEvent {
	event := TraceEvent{Query: step.Query, Args: step.Args, HalfOpen: step.HalfOpen}

	results, err := h.answer(ctx, step)
	if err != nil {
		event.Error = classify(err)
		event.Message = err.Error()
		h.logger.Debug("step failed", "query", step.Query, "error", err)
		return event
	}
	if results == nil {
		results = []string{}
	}
	event.Results = results
	return event
}

func (h *Harness) answer(ctx context.Context, step Step) ([]string, error) {
	opts := []engine.Option{engine.WithLogger(h.logger)}
	if step.HalfOpen {
		opts = append(opts, engine.WithHalfOpenRange())
	}
	eng := engine.New(h.table, opts...)
	args := step.Args

	switch step.Query {
	case QueryOpponents:
		return eng.Opponents(ctx, args[0], args[1])
	case QueryRepeat:
		return eng.RepeatPlayers(ctx, args[0], args[1])
	case QueryTies:
		ties, err := eng.Ties(ctx, args[0])
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ties))
		for i, t := range ties {
			out[i] = t.String()
		}
		return out, nil
	case QueryGames:
		var out []string
		err := eng.Games(ctx, args[0], func(g record.GameRecord) error {
			out = append(out, record.TieGame{GameID: g.GameID, WinnerID: g.Winner.ID, LoserID: g.Loser.ID}.String())
			return nil
		})
		return out, err
	}
	return nil, fmt.Errorf("unknown query %q", step.Query)
}

// classify maps an engine error to its scenario error class.
func classify(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		return ErrorInvalidArgument
	case errors.Is(err, store.ErrTableNotFound):
		return ErrorTableNotFound
	default:
		return ErrorOther
	}
}
