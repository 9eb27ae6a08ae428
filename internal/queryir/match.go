package queryir

import "bytes"

// Match evaluates p against row. A nil predicate matches everything.
func Match(p Predicate, row CellReader) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case ColumnEquals:
		return matchEquals(pred, row)
	case *ColumnEquals:
		return matchEquals(*pred, row)
	case And:
		return matchAnd(pred, row)
	case *And:
		return matchAnd(*pred, row)
	default:
		return false
	}
}

func matchEquals(eq ColumnEquals, row CellReader) bool {
	v, ok := row.Value(eq.Family, eq.Qualifier)
	if !ok {
		return false
	}
	return bytes.Equal(v, eq.Value)
}

func matchAnd(and And, row CellReader) bool {
	for _, p := range and.Predicates {
		if !Match(p, row) {
			return false
		}
	}
	return true
}
