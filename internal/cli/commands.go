package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/scrabbledb/internal/config"
	"github.com/roach88/scrabbledb/internal/engine"
	"github.com/roach88/scrabbledb/internal/loader"
	"github.com/roach88/scrabbledb/internal/record"
	"github.com/roach88/scrabbledb/internal/store"
	"github.com/roach88/scrabbledb/internal/store/boltstore"
	"github.com/roach88/scrabbledb/internal/store/memstore"
	"github.com/roach88/scrabbledb/internal/store/sqlitestore"
)

// openStore opens the backend named by the store connection string.
func openStore(conn string) (store.Store, error) {
	spec, err := config.ParseStore(conn)
	if err != nil {
		return nil, err
	}
	switch spec.Backend {
	case config.BackendSQLite:
		s, err := sqlitestore.Open(spec.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBolt:
		s, err := boltstore.Open(spec.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return memstore.New(), nil
	}
}

// withTable opens the store, runs fn with the games table and closes the store.
func (o *RootOptions) withTable(fn func(tbl *store.Table) error) (err error) {
	o.logger.Debug("opening store", "store", o.cfg.Store, "table", o.cfg.Table)
	s, err := openStore(o.cfg.Store)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = multierr.Append(err, WrapExitError(ExitFailure, "failed to close store", closeErr))
		}
	}()
	return fn(store.NewTable(s, o.cfg.Table))
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func (o *RootOptions) engine(tbl *store.Table, extra ...engine.Option) *engine.Engine {
	opts := append([]engine.Option{
		engine.WithLogger(o.logger),
		engine.WithMetrics(o.metrics),
	}, extra...)
	return engine.New(tbl, opts...)
}

// queryFailure maps query errors to exit codes.
func queryFailure(err error) error {
	if errors.Is(err, engine.ErrInvalidArgument) {
		return WrapExitError(ExitUsage, "invalid argument", err)
	}
	return WrapExitError(ExitFailure, "query failed", err)
}

// NewCreateTableCommand creates the createTable command.
func NewCreateTableCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "createTable",
		Short: "Create the games table",
		Args:  usageArgs(0, "createTable"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withTable(func(tbl *store.Table) error {
				families := opts.layout.Families
				if err := tbl.Create(cmd.Context(), families); err != nil {
					return WrapExitError(ExitFailure, "failed to create table", err)
				}
				opts.logger.Info("table created", "table", tbl.Name(), "families", families)
				return opts.output(cmd).Success(TableResult{Table: tbl.Name(), Families: families})
			})
		},
	}
}

// NewLoadTableCommand creates the loadTable command.
func NewLoadTableCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "loadTable <csvFolder>",
		Short: "Load every CSV file under a folder",
		Long: `Load every regular file under csvFolder, recursively, as CSV with a
header line. Every row is validated before anything is written.`,
		Args: usageArgs(1, "loadTable <csvFolder>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := args[0]
			if info, err := os.Stat(folder); err != nil || !info.IsDir() {
				return NewExitError(ExitMissingFolder, fmt.Sprintf("Folder %s does not exist.", folder))
			}

			return opts.withTable(func(tbl *store.Table) error {
				lopts := []loader.Option{
					loader.WithLogger(opts.logger),
					loader.WithMetrics(opts.metrics),
				}
				if opts.RunIDs != nil {
					lopts = append(lopts, loader.WithRunIDGenerator(opts.RunIDs))
				}

				res, err := loader.New(tbl, opts.layout, lopts...).Load(cmd.Context(), folder)
				if errors.Is(err, loader.ErrFolderNotFound) {
					return WrapExitError(ExitMissingFolder, "load failed", err)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "load failed", err)
				}
				return opts.output(cmd).Success(LoadResult{
					Table: tbl.Name(),
					RunID: res.RunID.String(),
					Files: res.Files,
					Rows:  res.Rows,
				})
			})
		},
	}
}

// NewQuery1Command creates the query1 command.
func NewQuery1Command(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query1 <tourneyId> <winnerName>",
		Short: "List the opponents a player beat in a tourney",
		Args:  usageArgs(2, "query1 <tourneyId> <winnerName>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tourney, winner := args[0], args[1]
			return opts.withTable(func(tbl *store.Table) error {
				opponents, err := opts.engine(tbl).Opponents(cmd.Context(), tourney, winner)
				if err != nil {
					return queryFailure(err)
				}
				return opts.output(cmd).Success(OpponentsResult{
					Tourney:   tourney,
					Winner:    winner,
					Count:     len(opponents),
					Opponents: opponents,
				})
			})
		},
	}
}

// NewQuery2Command creates the query2 command.
func NewQuery2Command(opts *RootOptions) *cobra.Command {
	var halfOpen bool

	cmd := &cobra.Command{
		Use:   "query2 <firstTourneyId> <lastTourneyId>",
		Short: "List the players that repeat in every tourney of a range",
		Long: `List the players that played at least two games in every tourney from
firstTourneyId through lastTourneyId. A player that misses a tourney, or
plays it only once, is dropped for good.

With --half-open the games of lastTourneyId are not read.`,
		Args: usageArgs(2, "query2 <firstTourneyId> <lastTourneyId>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, last := args[0], args[1]
			return opts.withTable(func(tbl *store.Table) error {
				var extra []engine.Option
				if halfOpen {
					extra = append(extra, engine.WithHalfOpenRange())
				}
				players, err := opts.engine(tbl, extra...).RepeatPlayers(cmd.Context(), first, last)
				if err != nil {
					return queryFailure(err)
				}
				return opts.output(cmd).Success(RepeatResult{
					First:    first,
					Last:     last,
					HalfOpen: halfOpen,
					Count:    len(players),
					Players:  players,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&halfOpen, "half-open", false, "exclude lastTourneyId from the range")
	return cmd
}

// NewQuery3Command creates the query3 command.
func NewQuery3Command(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query3 <tourneyId>",
		Short: "List the games of a tourney that ended in a tie",
		Args:  usageArgs(1, "query3 <tourneyId>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tourney := args[0]
			return opts.withTable(func(tbl *store.Table) error {
				ties, err := opts.engine(tbl).Ties(cmd.Context(), tourney)
				if err != nil {
					return queryFailure(err)
				}
				return opts.output(cmd).Success(TiesResult{
					Tourney: tourney,
					Count:   len(ties),
					Games:   ties,
				})
			})
		},
	}
}

// NewGamesCommand creates the games command.
func NewGamesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "games <tourneyId>",
		Short: "Print every game of a tourney",
		Args:  usageArgs(1, "games <tourneyId>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tourney := args[0]
			return opts.withTable(func(tbl *store.Table) error {
				games := []record.GameRecord{}
				err := opts.engine(tbl).Games(cmd.Context(), tourney, func(g record.GameRecord) error {
					games = append(games, g)
					return nil
				})
				if err != nil {
					return queryFailure(err)
				}
				return opts.output(cmd).Success(GamesResult{
					Tourney: tourney,
					Count:   len(games),
					Games:   games,
				})
			})
		},
	}
}
