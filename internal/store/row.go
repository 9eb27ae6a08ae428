package store

import "sort"

// Row is one scanned row. Cells are sorted by family, then qualifier.
type Row struct {
	Key   []byte
	Cells []Cell
}

// Value returns the value of family:qualifier.
func (r Row) Value(family, qualifier string) ([]byte, bool) {
	for _, c := range r.Cells {
		if c.Family == family && c.Qualifier == qualifier {
			return c.Value, true
		}
	}
	return nil, false
}

// String returns the value of family:qualifier as a string, or "" if absent.
func (r Row) String(family, qualifier string) string {
	v, _ := r.Value(family, qualifier)
	return string(v)
}

// Project returns a copy of r holding only cells of the given families.
// An empty family list returns r unchanged.
func (r Row) Project(families []string) Row {
	if len(families) == 0 {
		return r
	}
	keep := make(map[string]bool, len(families))
	for _, f := range families {
		keep[f] = true
	}
	out := Row{Key: r.Key}
	for _, c := range r.Cells {
		if keep[c.Family] {
			out.Cells = append(out.Cells, c)
		}
	}
	return out
}

// SortCells orders cells by family then qualifier, in place.
func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Family != cells[j].Family {
			return cells[i].Family < cells[j].Family
		}
		return cells[i].Qualifier < cells[j].Qualifier
	})
}

// MergeCells overlays update onto base. Cells in update replace cells in
// base with the same family:qualifier. The result is sorted and shares no
// backing array with either input.
func MergeCells(base, update []Cell) []Cell {
	merged := make([]Cell, 0, len(base)+len(update))
	index := make(map[[2]string]int, len(base)+len(update))
	for _, cells := range [][]Cell{base, update} {
		for _, c := range cells {
			k := [2]string{c.Family, c.Qualifier}
			if i, ok := index[k]; ok {
				merged[i] = c
				continue
			}
			index[k] = len(merged)
			merged = append(merged, c)
		}
	}
	SortCells(merged)
	return merged
}
