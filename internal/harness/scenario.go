package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// CSV is a folder of game CSV files loaded before Games are written.
	// Relative paths are resolved against the scenario file.
	CSV string `yaml:"csv,omitempty"`

	// Games are written to the table after CSV is loaded.
	Games []GameSpec `yaml:"games,omitempty"`

	// NoTable skips table creation, for scenarios about a missing table.
	NoTable bool `yaml:"no_table,omitempty"`

	// Steps are run in order against the seeded table.
	Steps []Step `yaml:"steps"`
}

// GameSpec is a compact game row. Player ids double as names.
type GameSpec struct {
	Tourney int    `yaml:"tourney"`
	Game    int    `yaml:"game"`
	Winner  string `yaml:"winner"`
	Loser   string `yaml:"loser"`
	Tie     bool   `yaml:"tie,omitempty"`
}

// Step runs one query.
type Step struct {
	// Query is one of query1, query2, query3, games.
	Query string `yaml:"query"`

	// Args are the positional query arguments.
	Args []string `yaml:"args"`

	// HalfOpen excludes the last tourney from a query2 range.
	HalfOpen bool `yaml:"half_open,omitempty"`

	// Expect is checked against the answer. If nil, only the trace is kept.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected answer of a step.
type Expect struct {
	Results  []string `yaml:"results,omitempty"`
	Contains []string `yaml:"contains,omitempty"`
	Count    *int     `yaml:"count,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// Query names.
const (
	QueryOpponents = "query1"
	QueryRepeat    = "query2"
	QueryTies      = "query3"
	QueryGames     = "games"
)

// Error classes.
const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorTableNotFound   = "table_not_found"
	ErrorOther           = "error"
)

var queryArity = map[string]int{
	QueryOpponents: 2,
	QueryRepeat:    2,
	QueryTies:      1,
	QueryGames:     1,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.CSV != "" && !filepath.IsAbs(scenario.CSV) {
		scenario.CSV = filepath.Join(filepath.Dir(path), scenario.CSV)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.CSV != "" {
		if info, err := os.Stat(s.CSV); err != nil || !info.IsDir() {
			return fmt.Errorf("csv folder not found: %s", s.CSV)
		}
	}

	if s.NoTable && (s.CSV != "" || len(s.Games) > 0) {
		return fmt.Errorf("no_table cannot be combined with csv or games")
	}

	for i, g := range s.Games {
		if g.Tourney < 0 || g.Game < 0 {
			return fmt.Errorf("games[%d]: ids must be non-negative", i)
		}
		if g.Winner == "" || g.Loser == "" {
			return fmt.Errorf("games[%d]: winner and loser are required", i)
		}
	}

	for i, step := range s.Steps {
		n, ok := queryArity[step.Query]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown query %q", i, step.Query)
		}
		if len(step.Args) != n {
			return fmt.Errorf("steps[%d]: %s needs %d args, got %d", i, step.Query, n, len(step.Args))
		}
		if step.HalfOpen && step.Query != QueryRepeat {
			return fmt.Errorf("steps[%d]: half_open only applies to %s", i, QueryRepeat)
		}
		if err := validateExpect(i, step.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}
	if e.Count != nil && *e.Count < 0 {
		return fmt.Errorf("steps[%d].expect: count must be non-negative", index)
	}
	if e.Error == "" {
		return nil
	}
	switch e.Error {
	case ErrorInvalidArgument, ErrorTableNotFound, ErrorOther:
	default:
		return fmt.Errorf("steps[%d].expect: unknown error class %q", index, e.Error)
	}
	if e.Results != nil || e.Contains != nil || e.Count != nil {
		return fmt.Errorf("steps[%d].expect: error cannot be combined with results", index)
	}
	return nil
}
