// Package querysql compiles store scans and queryir predicates to
// parameterized SQLite SQL over the cells table.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/scrabbledb/internal/queryir"
)

// Scan describes a range scan over one table of the cells schema.
type Scan struct {
	Table    string
	Start    []byte // inclusive; nil = unbounded
	End      []byte // exclusive; nil = unbounded
	Families []string
	Filter   queryir.Predicate
}

// SQLCompiler compiles scans to parameterized SQL for SQLite.
//
// CRITICAL: every query orders by row_key, family, qualifier so cells of a
// row are contiguous and rows come back in ascending key order.
// CRITICAL: all values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a scan to (sql, params).
//
// Predicates are pushed down as correlated EXISTS subqueries so they can
// test cells of families that the projection drops.
func (c *SQLCompiler) Compile(s Scan) (string, []any, error) {
	if s.Table == "" {
		return "", nil, fmt.Errorf("cannot compile scan without table")
	}

	where := []string{"c.table_name = ?"}
	params := []any{s.Table}

	if s.Start != nil {
		where = append(where, "c.row_key >= ?")
		params = append(params, s.Start)
	}
	if s.End != nil {
		where = append(where, "c.row_key < ?")
		params = append(params, s.End)
	}

	if len(s.Families) > 0 {
		placeholders := make([]string, len(s.Families))
		for i, f := range s.Families {
			placeholders[i] = "?"
			params = append(params, f)
		}
		where = append(where, fmt.Sprintf("c.family IN (%s)", strings.Join(placeholders, ", ")))
	}

	if s.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(s.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, filterSQL)
		params = append(params, filterParams...)
	}

	sql := "SELECT c.row_key, c.family, c.qualifier, c.value FROM cells c" +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY " + stableOrderKey()

	return sql, params, nil
}

// stableOrderKey returns the ORDER BY clause shared by all scans.
// BLOB comparison is memcmp, matching the byte order of the other backends.
func stableOrderKey() string {
	return "c.row_key ASC, c.family COLLATE BINARY ASC, c.qualifier COLLATE BINARY ASC"
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.ColumnEquals:
		return c.compileEquals(pred)
	case *queryir.ColumnEquals:
		return c.compileEquals(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles a ColumnEquals to a correlated EXISTS.
func (c *SQLCompiler) compileEquals(eq queryir.ColumnEquals) (string, []any, error) {
	if eq.Family == "" || eq.Qualifier == "" {
		return "", nil, fmt.Errorf("column predicate needs family and qualifier")
	}
	value := eq.Value
	if value == nil {
		value = []byte{}
	}
	sql := "EXISTS (SELECT 1 FROM cells p WHERE p.table_name = c.table_name" +
		" AND p.row_key = c.row_key AND p.family = ? AND p.qualifier = ? AND p.value = ?)"
	return sql, []any{eq.Family, eq.Qualifier, value}, nil
}

// compileAnd compiles an And to a parenthesized conjunction.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}
