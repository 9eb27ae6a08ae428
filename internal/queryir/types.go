package queryir

// Predicate is a row filter evaluated against a row's cells.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// CellReader exposes the cells of one row. store.Row implements it.
type CellReader interface {
	Value(family, qualifier string) ([]byte, bool)
}

// ColumnEquals matches rows whose family:qualifier cell equals Value.
//
// Translates to SQL (see querysql):
//
//	EXISTS (SELECT 1 FROM cells p WHERE p.row_key = c.row_key
//	        AND p.family = ? AND p.qualifier = ? AND p.value = ?)
type ColumnEquals struct {
	Family    string
	Qualifier string
	Value     []byte
}

func (ColumnEquals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Equals is shorthand for a ColumnEquals over a string value.
func Equals(family, qualifier, value string) ColumnEquals {
	return ColumnEquals{Family: family, Qualifier: qualifier, Value: []byte(value)}
}

// AllOf builds an And from the given predicates.
func AllOf(preds ...Predicate) And {
	return And{Predicates: preds}
}
