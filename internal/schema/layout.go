// Package schema compiles the CUE description of the games table layout.
//
// The layout says which CSV column lands in which cell, which columns form
// the row key, and how each column is validated at load time. The default
// layout is embedded; an alternative can be loaded from a file.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scrabbledb/internal/record"
)

//go:embed games.cue
var defaultLayout []byte

// Kind says how a column value is validated and normalized.
type Kind string

const (
	// KindID is a decimal id that must fit the key width.
	KindID Kind = "id"
	// KindBool is a boolean flag stored as "True" or "False".
	KindBool Kind = "bool"
	// KindText is free text, NFC-normalized.
	KindText Kind = "text"
)

// Column maps one CSV column to one cell.
type Column struct {
	Index     int    `json:"index"`
	Family    string `json:"family"`
	Qualifier string `json:"qualifier"`
	Kind      Kind   `json:"kind"`
}

// Layout is a compiled table layout.
type Layout struct {
	Table        string
	Families     []string
	TourneyIndex int
	GameIndex    int
	Columns      []Column
}

// Width is the minimum number of fields a CSV record must have.
func (l *Layout) Width() int {
	w := 0
	for _, c := range l.Columns {
		if c.Index+1 > w {
			w = c.Index + 1
		}
	}
	return w
}

// required lists the cells every layout must populate.
var required = [][2]string{
	{record.FamilyInfo, record.GameID},
	{record.FamilyInfo, record.TourneyID},
	{record.FamilyInfo, record.Tie},
	{record.FamilyWinner, record.PlayerID},
	{record.FamilyWinner, record.Name},
	{record.FamilyLoser, record.PlayerID},
}

// Default returns the embedded layout. It panics if the embedded file does
// not compile, which a test guards against.
func Default() *Layout {
	l, err := Compile(defaultLayout, "games.cue")
	if err != nil {
		panic(fmt.Sprintf("schema: embedded layout: %v", err))
	}
	return l
}

// LoadFile compiles the layout at path.
func LoadFile(path string) (*Layout, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Compile(src, filepath.Base(path))
}

// Compile evaluates src as CUE and validates the resulting layout.
func Compile(src []byte, filename string) (*Layout, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	l := &Layout{}
	if err := decodeField(v, "table", &l.Table); err != nil {
		return nil, err
	}
	if err := decodeField(v, "families", &l.Families); err != nil {
		return nil, err
	}
	if err := decodeField(v, "key.tourney", &l.TourneyIndex); err != nil {
		return nil, err
	}
	if err := decodeField(v, "key.game", &l.GameIndex); err != nil {
		return nil, err
	}

	cols := v.LookupPath(cue.ParsePath("columns"))
	iter, err := cols.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	seen := map[int]bool{}
	cells := map[[2]string]bool{}
	for iter.Next() {
		cv := iter.Value()
		var c Column
		if err := cv.Decode(&c); err != nil {
			return nil, formatCUEError(err)
		}
		if seen[c.Index] {
			return nil, &CompileError{
				Field:   "columns",
				Message: fmt.Sprintf("duplicate column index %d", c.Index),
				Pos:     cv.Pos(),
			}
		}
		seen[c.Index] = true
		if !contains(l.Families, c.Family) {
			return nil, &CompileError{
				Field:   "columns",
				Message: fmt.Sprintf("column %d uses undeclared family %q", c.Index, c.Family),
				Pos:     cv.Pos(),
			}
		}
		cell := [2]string{c.Family, c.Qualifier}
		if cells[cell] {
			return nil, &CompileError{
				Field:   "columns",
				Message: fmt.Sprintf("cell %s:%s mapped twice", c.Family, c.Qualifier),
				Pos:     cv.Pos(),
			}
		}
		cells[cell] = true
		l.Columns = append(l.Columns, c)
	}

	for _, r := range required {
		if !cells[r] {
			return nil, &CompileError{
				Field:   "columns",
				Message: fmt.Sprintf("required cell %s:%s is not mapped", r[0], r[1]),
				Pos:     cols.Pos(),
			}
		}
	}

	for _, k := range []struct {
		field string
		index int
	}{{"key.tourney", l.TourneyIndex}, {"key.game", l.GameIndex}} {
		c, ok := l.column(k.index)
		if !ok || c.Kind != KindID {
			return nil, &CompileError{
				Field:   k.field,
				Message: fmt.Sprintf("column %d must exist and be of kind id", k.index),
				Pos:     v.LookupPath(cue.ParsePath(k.field)).Pos(),
			}
		}
	}
	if l.TourneyIndex == l.GameIndex {
		return nil, &CompileError{
			Field:   "key",
			Message: "tourney and game must be different columns",
			Pos:     v.LookupPath(cue.ParsePath("key")).Pos(),
		}
	}

	return l, nil
}

func (l *Layout) column(index int) (Column, bool) {
	for _, c := range l.Columns {
		if c.Index == index {
			return c, true
		}
	}
	return Column{}, false
}

func decodeField(v cue.Value, path string, dst any) error {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return &CompileError{
			Field:   path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	if err := fv.Decode(dst); err != nil {
		return formatCUEError(err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// CompileError is a layout error with its source position when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
