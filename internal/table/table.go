// Package table holds delimited tabular data in memory. Cell values keep
// their source text so that columns the caller does not interpret pass
// through to output unchanged.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNoColumn is returned when a requested column is not in the table.
	ErrNoColumn = errors.New("table: no such column")
	// ErrNoHeader is returned when the input contains no header record.
	ErrNoHeader = errors.New("table: missing header")
)

// Table is an ordered set of rows under a single header.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates a table from a header and data rows. Rows shorter than the
// header are padded with empty cells, longer rows are truncated. When a
// column name occurs twice, lookups resolve to the first occurrence.
func New(cols []string, rows [][]string) *Table {
	t := &Table{
		cols:  cols,
		index: make(map[string]int, len(cols)),
		rows:  rows,
	}
	for i, c := range cols {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
	for i, row := range rows {
		for len(row) < len(cols) {
			row = append(row, "")
		}
		rows[i] = row[:len(cols)]
	}
	return t
}

// Columns returns a copy of the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns the cells of row i. The slice is the backing store and
// must not be modified.
func (t *Table) Row(i int) []string { return t.rows[i] }

// Cell returns the text of a single cell.
func (t *Table) Cell(row, col int) string { return t.rows[row][col] }

// Floats parses the named column as float64 values. Empty cells and the
// spelling "NaN" parse to NaN, so rows with missing values drop out of
// numeric comparisons instead of failing the whole column.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	vals := make([]float64, len(t.rows))
	for i, row := range t.rows {
		s := strings.TrimSpace(row[col])
		if s == "" || strings.EqualFold(s, "nan") {
			vals[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q, row %d: %w", name, i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// Subset returns a new table with the same header holding copies of the
// selected rows, in the given order. The result shares no row storage
// with the receiver.
func (t *Table) Subset(keep []int) *Table {
	rows := make([][]string, len(keep))
	for i, k := range keep {
		rows[i] = append([]string(nil), t.rows[k]...)
	}
	return New(append([]string(nil), t.cols...), rows)
}
