package document

import "slices"

// Grid holds the assembled cell text of one table, keyed by 1-based row and
// column indexes. Rows remember the order in which they were first seen.
type Grid struct {
	order []int
	rows  map[int]map[int]string
}

// NewGrid creates an empty Grid
func NewGrid() *Grid {
	return &Grid{
		rows: make(map[int]map[int]string),
	}
}

// Set stores the text of a cell, creating its row on first use
func (g *Grid) Set(row, col int, text string) {
	cols, ok := g.rows[row]
	if !ok {
		cols = make(map[int]string)
		g.rows[row] = cols
		g.order = append(g.order, row)
	}
	cols[col] = text
}

// Cell returns the text of a cell
func (g *Grid) Cell(row, col int) (string, bool) {
	cols, ok := g.rows[row]
	if !ok {
		return "", false
	}
	text, ok := cols[col]
	return text, ok
}

// Rows returns the row indexes in insertion order
func (g *Grid) Rows() []int {
	return slices.Clone(g.order)
}

// SortedRows returns the row indexes in ascending numeric order
func (g *Grid) SortedRows() []int {
	rows := slices.Clone(g.order)
	slices.Sort(rows)
	return rows
}

// Len returns the number of rows
func (g *Grid) Len() int {
	return len(g.order)
}
