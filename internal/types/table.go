// =============================================================================
// Sheet to XML Converter - Table
// =============================================================================
//
// A Table is the in-memory form of one worksheet: ordered column names and
// ordered rows of typed Values. Every row has exactly len(Columns) cells.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// Table is an ordered list of named columns and rows of typed cells.
type Table struct {
	// Columns holds the header names in sheet order.
	Columns []string

	// Rows holds the data rows. Each row has len(Columns) cells.
	Rows [][]Value
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds a row, padding with Empty or truncating to the column count.
func (t *Table) Append(row []Value) {
	cells := make([]Value, len(t.Columns))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the value at row for the named column. Unknown columns and
// out-of-range rows yield Empty.
func (t *Table) Cell(row int, column string) Value {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Empty()
	}
	return t.Rows[row][idx]
}

// SetCell overwrites the value at row for the named column.
func (t *Table) SetCell(row int, column string, v Value) bool {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return false
	}
	t.Rows[row][idx] = v
	return true
}

// Slice returns a table sharing the columns and holding rows [from, to).
func (t *Table) Slice(from, to int) *Table {
	out := NewTable(t.Columns)
	out.Rows = t.Rows[from:to:to]
	return out
}

// Select returns a new table whose columns are exactly the given names, in
// the given order. Every name must exist in t.
func (t *Table) Select(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
	}

	out := NewTable(columns)
	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]Value, len(idx))
		for i, src := range idx {
			cells[i] = row[src]
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// TableFromGrid builds a table from raw sheet rows. The first row with a
// non-empty cell is the header; fully empty rows after it are skipped.
//
// Header cells are trimmed. Blank ones are named "Unnamed: <i>" and repeated
// names get a ".<n>" suffix, so every column name is unique.
func TableFromGrid(grid [][]Value) (*Table, error) {
	start := -1
	width := 0
	for i, row := range grid {
		if start < 0 && !rowEmpty(row) {
			start = i
		}
		if start >= 0 && len(row) > width {
			width = len(row)
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	t := NewTable(headerNames(grid[start], width))
	for _, row := range grid[start+1:] {
		if rowEmpty(row) {
			continue
		}
		t.Append(row)
	}
	return t, nil
}

func headerNames(row []Value, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(row) {
			name = strings.TrimSpace(row[i].String())
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

func rowEmpty(row []Value) bool {
	for _, v := range row {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}
