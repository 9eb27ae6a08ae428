package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scrabbledb/internal/store"
)

// FormatTrace renders a trace as stable text, one line per step:
//
//	[1] query2 1 2 -> [B]
//	[2] query2 1 2 (half-open) -> [A, B]
//	[3] query3 seven -> error: invalid_argument
func FormatTrace(name string, trace []TraceEvent) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, ev := range trace {
		fmt.Fprintf(&buf, "[%d] %s %s", ev.Seq, ev.Query, strings.Join(ev.Args, " "))
		if ev.HalfOpen {
			buf.WriteString(" (half-open)")
		}
		if ev.Error != "" {
			fmt.Fprintf(&buf, " -> error: %s\n", ev.Error)
			continue
		}
		fmt.Fprintf(&buf, " -> %s\n", list(ev.Results))
	}
	return buf.Bytes()
}

// RunWithGolden runs a scenario on s and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, s store.Store) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, s)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares result's trace against the golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatTrace(name, result.Trace))
}
