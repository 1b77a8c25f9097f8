// Package table holds the raw downloaded price table before cleaning.
//
// A Frame mirrors what a market-data download looks like on disk: an index
// column (usually "Date") plus value columns whose headers may span several
// levels, e.g. ["Close", "^NSEI"]. Cells are kept as strings; typing is the
// cleaner's job.
package table

import (
	"fmt"
	"strings"
)

// Column is a value column identified by its header path, outermost level first.
type Column []string

// Flat returns the first header level, which is how multi-level headers collapse.
func (c Column) Flat() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Joined returns every header level joined by a space, for messages.
func (c Column) Joined() string {
	return strings.TrimSpace(strings.Join(c, " "))
}

// Frame is an indexed table of string cells.
type Frame struct {
	IndexName  string
	LevelNames []string // names of the header levels, e.g. ["Price", "Ticker"]
	Index      []string
	Columns    []Column
	Rows       [][]string // Rows[i][j] is the cell of Index[i] under Columns[j]
}

// NewFrame creates an empty frame with the given index name and columns.
func NewFrame(indexName string, columns ...Column) *Frame {
	return &Frame{IndexName: indexName, Columns: columns}
}

// Append adds one row. The number of cells must match the number of columns.
func (f *Frame) Append(index string, cells ...string) error {
	if len(cells) != len(f.Columns) {
		return fmt.Errorf("row %q: got %d cells, want %d", index, len(cells), len(f.Columns))
	}
	row := make([]string, len(cells))
	copy(row, cells)
	f.Index = append(f.Index, index)
	f.Rows = append(f.Rows, row)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Index) }

// Levels returns the deepest header level across columns.
func (f *Frame) Levels() int {
	levels := 1
	for _, c := range f.Columns {
		if len(c) > levels {
			levels = len(c)
		}
	}
	return levels
}

// MultiLevel reports whether any column header has more than one level.
func (f *Frame) MultiLevel() bool { return f.Levels() > 1 }

// ColumnNames lists the index name followed by every column header, for error messages.
func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns)+1)
	if f.IndexName != "" {
		names = append(names, f.IndexName)
	}
	for _, c := range f.Columns {
		names = append(names, c.Joined())
	}
	return names
}

// Lookup returns the position of the first column whose flat name equals name.
func (f *Frame) Lookup(name string) (int, bool) {
	for i, c := range f.Columns {
		if c.Flat() == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the cell at row i, column j, or "" when the row is short.
func (f *Frame) Cell(i, j int) string {
	if j < 0 || j >= len(f.Rows[i]) {
		return ""
	}
	return f.Rows[i][j]
}
