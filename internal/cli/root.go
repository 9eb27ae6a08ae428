package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"

	"github.com/roach88/scrabbledb/internal/config"
	"github.com/roach88/scrabbledb/internal/loader"
	"github.com/roach88/scrabbledb/internal/metrics"
	"github.com/roach88/scrabbledb/internal/schema"
)

// RootOptions holds global flags for all commands, and the state resolved
// from them before a command runs.
type RootOptions struct {
	Verbose     bool
	Format      string // "text" | "json" | "yaml"
	ConfigFile  string
	Store       string
	Table       string
	MetricsFile string
	LayoutFile  string

	// RunIDs overrides the load run id source (for testing).
	RunIDs loader.RunIDGenerator

	cfg     *config.Config
	layout  *schema.Layout
	logger  *slog.Logger
	metrics *metrics.Manager
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

const usageText = `Actions:
  createTable                        create the games table
  loadTable <csvFolder>              load every CSV file under csvFolder
  query1 <tourneyId> <winnerName>    opponents beaten by winnerName in a tourney
  query2 <firstTourneyId> <lastTourneyId>
                                     players repeating in every tourney of the range
  query3 <tourneyId>                 games of a tourney that ended in a tie
  games <tourneyId>                  every game of a tourney`

// NewRootCommand creates the root command for the scrabbledb CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrabbledb <action> [args]",
		Short: "Scrabble tournament games in a sorted key-value store",
		Long: `Load Scrabble tournament results into a sorted wide-column table and
answer queries over them with ordered range scans.

` + usageText,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The root itself only reports a missing or unknown action.
			if !cmd.HasParent() {
				return nil
			}
			return opts.resolve(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil || opts.cfg.MetricsFile == "" {
				return nil
			}
			if err := opts.metrics.WriteTextfile(opts.cfg.MetricsFile); err != nil {
				return WrapExitError(ExitFailure, "failed to write metrics", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return NewExitError(ExitUsage, "missing action\n"+usageText)
			}
			return NewExitError(ExitUsage, fmt.Sprintf("unknown action %q\n%s", args[0], usageText))
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (default $SCRABBLEDB_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store connection string: sqlite:<path>, bolt:<path> or memory:")
	cmd.PersistentFlags().StringVar(&opts.Table, "table", "", "table name (default from the layout)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	cmd.PersistentFlags().StringVar(&opts.LayoutFile, "layout", "", "CUE table layout file (default built in)")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid flags", err)
	})

	// Add subcommands
	cmd.AddCommand(NewCreateTableCommand(opts))
	cmd.AddCommand(NewLoadTableCommand(opts))
	cmd.AddCommand(NewQuery1Command(opts))
	cmd.AddCommand(NewQuery2Command(opts))
	cmd.AddCommand(NewQuery3Command(opts))
	cmd.AddCommand(NewGamesCommand(opts))

	return cmd
}

// resolve loads configuration, the table layout, logging and metrics.
func (o *RootOptions) resolve(stderr io.Writer) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(config.Overrides{
		ConfigFile:  o.ConfigFile,
		Store:       o.Store,
		Table:       o.Table,
		MetricsFile: o.MetricsFile,
		LayoutFile:  o.LayoutFile,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}
	o.cfg = cfg

	level, _ := config.ParseLevel(cfg.LogLevel)
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cfg.LayoutFile != "" {
		o.layout, err = schema.LoadFile(cfg.LayoutFile)
		if err != nil {
			return WrapExitError(ExitFailure, "invalid table layout", err)
		}
	} else {
		o.layout = schema.Default()
	}
	if cfg.Table == "" {
		cfg.Table = o.layout.Table
	}

	o.metrics = metrics.NewManager()
	return nil
}

// usageArgs validates that exactly n positional arguments were given.
func usageArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return NewExitError(ExitUsage, fmt.Sprintf("%s needs %d argument(s): %s", cmd.Name(), n, usage))
		}
		return nil
	}
}

// foldActionName rewrites the first argument that names an action,
// compared case-insensitively, to the action's canonical spelling.
func foldActionName(root *cobra.Command, args []string) []string {
	fold := cases.Fold()
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		folded := fold.String(a)
		for _, c := range root.Commands() {
			if folded == fold.String(c.Name()) {
				out := slices.Clone(args)
				out[i] = c.Name()
				return out
			}
		}
	}
	return args
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(&RootOptions{}, args, stdout, stderr)
}

func execute(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(opts)
	if args == nil {
		// cobra falls back to os.Args for nil args
		args = []string{}
	}
	root.SetArgs(foldActionName(root, args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := GetExitCode(err)
	if opts.Format == "json" || opts.Format == "yaml" {
		f := &OutputFormatter{Format: opts.Format, Writer: stdout}
		_ = f.Error(code, err.Error())
	} else {
		f := &OutputFormatter{Format: "text", Writer: stderr}
		_ = f.Error(code, err.Error())
	}
	return code
}
