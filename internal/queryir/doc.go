// Package queryir defines the predicate IR passed to store scans.
//
// A predicate restricts which rows a scan yields. It is data, not a
// function, so a backend can either push it down into its native query
// language (the SQLite backend compiles it to SQL via internal/querysql)
// or evaluate it client-side with Match. Both paths have identical
// semantics:
//
//   - ColumnEquals matches a row whose cell family:qualifier exists and
//     is byte-equal to Value. A row without that cell does not match.
//   - And matches when every child matches. An empty And matches all rows.
//
// Predicate is a sealed interface (marker method), so backends can switch
// exhaustively over the node types:
//
//	switch p := pred.(type) {
//	case ColumnEquals:
//	case And:
//	}
package queryir
