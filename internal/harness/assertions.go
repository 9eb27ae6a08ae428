package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a step's answer does not match its
// expect clause.
type AssertionError struct {
	Step     int
	Query    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: steps[%d] %s\n", e.Step, e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpect compares event against step.Expect and returns one message
// per mismatch.
func checkExpect(index int, step Step, event TraceEvent) []string {
	e := step.Expect
	if e == nil {
		return nil
	}

	fail := func(expected, actual string) string {
		return (&AssertionError{Step: index, Query: step.Query, Expected: expected, Actual: actual}).Error()
	}

	if e.Error != "" {
		if event.Error != e.Error {
			return []string{fail("error "+e.Error, describe(event))}
		}
		return nil
	}
	if event.Error != "" {
		return []string{fail("success", describe(event))}
	}

	var errs []string
	if e.Results != nil && !slices.Equal(e.Results, event.Results) {
		errs = append(errs, fail(list(e.Results), list(event.Results)))
	}
	for _, want := range e.Contains {
		if !slices.Contains(event.Results, want) {
			errs = append(errs, fail("results containing "+want, list(event.Results)))
		}
	}
	if e.Count != nil && *e.Count != len(event.Results) {
		errs = append(errs, fail(fmt.Sprintf("%d results", *e.Count), fmt.Sprintf("%d results %s", len(event.Results), list(event.Results))))
	}
	return errs
}

func describe(event TraceEvent) string {
	if event.Error != "" {
		return fmt.Sprintf("error %s (%s)", event.Error, event.Message)
	}
	return list(event.Results)
}

func list(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
