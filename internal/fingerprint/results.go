package fingerprint

import (
	"strconv"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

// Output column labels.
const (
	PeakColumnLabel      = "MALDI M/Z Value"
	MassErrorColumnLabel = "Mass Error (ppm)"
)

// Match is one peak/PSM pairing inside the tolerance window.
type Match struct {
	PeakMZ       float64
	MassErrorPPM float64
	Row          int // row in the filtered PSM table
}

// Results is the accumulated match table of one analysis run, in peak
// order and PSM row order within each peak. The display layout is the
// matched peak m/z first, then every PSM column unchanged, then the
// signed mass error.
type Results struct {
	psms    *table.Table // filtered PSMs the matches refer to
	matches []Match
}

func emptyResults() *Results {
	return newResults(table.New(nil, nil), nil)
}

func newResults(psms *table.Table, matches []Match) *Results {
	return &Results{psms: psms, matches: matches}
}

// Len returns the number of matches.
func (r *Results) Len() int { return len(r.matches) }

// Matches returns a copy of the matches in result order.
func (r *Results) Matches() []Match {
	return append([]Match(nil), r.matches...)
}

// Columns returns the display column labels.
func (r *Results) Columns() []string {
	cols := make([]string, 0, r.psms.NumCols()+2)
	cols = append(cols, PeakColumnLabel)
	cols = append(cols, r.psms.Columns()...)
	return append(cols, MassErrorColumnLabel)
}

// Row materializes one display row. PSM cells pass through exactly as
// loaded; computed values use the shortest form that round-trips.
func (r *Results) Row(i int) []string {
	m := r.matches[i]
	row := make([]string, 0, r.psms.NumCols()+2)
	row = append(row, formatFloat(m.PeakMZ))
	row = append(row, r.psms.Row(m.Row)...)
	return append(row, formatFloat(m.MassErrorPPM))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Table materializes the whole result set in display layout.
func (r *Results) Table() *table.Table {
	rows := make([][]string, len(r.matches))
	for i := range r.matches {
		rows[i] = r.Row(i)
	}
	return table.New(r.Columns(), rows)
}

// Reshape materializes the result set in a caller-chosen layout:
// columns named in first move to the front in that order, all other
// columns keep their relative order, and rename maps display labels to
// new ones. Cell values are never changed and no column is dropped.
func (r *Results) Reshape(first []string, rename map[string]string) *table.Table {
	t := r.Table()

	order := make([]int, 0, t.NumCols())
	used := make(map[int]bool, len(first))
	for _, name := range first {
		if i, ok := t.ColumnIndex(name); ok && !used[i] {
			order = append(order, i)
			used[i] = true
		}
	}
	for i := 0; i < t.NumCols(); i++ {
		if !used[i] {
			order = append(order, i)
		}
	}

	oldCols := t.Columns()
	cols := make([]string, len(order))
	for j, i := range order {
		name := oldCols[i]
		if to, ok := rename[name]; ok {
			name = to
		}
		cols[j] = name
	}
	rows := make([][]string, t.NumRows())
	for ri := range rows {
		row := make([]string, len(order))
		for j, i := range order {
			row[j] = t.Cell(ri, i)
		}
		rows[ri] = row
	}
	return table.New(cols, rows)
}

// PeakMZs returns the matched peak m/z of every result row.
func (r *Results) PeakMZs() []float64 {
	vals := make([]float64, len(r.matches))
	for i, m := range r.matches {
		vals[i] = m.PeakMZ
	}
	return vals
}

// MassErrors returns the signed ppm mass error of every result row.
func (r *Results) MassErrors() []float64 {
	vals := make([]float64, len(r.matches))
	for i, m := range r.matches {
		vals[i] = m.MassErrorPPM
	}
	return vals
}

// Scores returns the confidence score of every result row. The second
// return is false when the results carry no score column.
func (r *Results) Scores() ([]float64, bool) {
	scores, err := r.psms.Floats(ScoreColumn)
	if err != nil {
		return nil, false
	}
	vals := make([]float64, len(r.matches))
	for i, m := range r.matches {
		vals[i] = scores[m.Row]
	}
	return vals, true
}
