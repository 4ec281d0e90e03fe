package fingerprint

import (
	"math"
	"sort"
)

// Selector answers range queries over the reference masses of the
// filtered PSM rows. Match selection is a pure range predicate, so any
// strategy must produce the same rows as a full scan.
type Selector interface {
	// InWindow returns the indices of all rows whose mass lies in
	// [lo, hi], bounds included, in ascending row order.
	InWindow(lo, hi float64) []int
}

// NewSelector builds a Selector over the given masses. Rows whose mass
// is NaN never match any window.
type NewSelector func(masses []float64) Selector

// LinearSelector scans every row for every window.
func LinearSelector(masses []float64) Selector {
	return linearSelector(masses)
}

type linearSelector []float64

func (s linearSelector) InWindow(lo, hi float64) []int {
	var rows []int
	for i, m := range s {
		if m >= lo && m <= hi {
			rows = append(rows, i)
		}
	}
	return rows
}

// SortedSelector sorts the masses once and locates each window by
// binary search.
func SortedSelector(masses []float64) Selector {
	s := &sortedSelector{}
	for i, m := range masses {
		if !math.IsNaN(m) {
			s.masses = append(s.masses, m)
			s.rows = append(s.rows, i)
		}
	}
	sort.Sort(s)
	return s
}

type sortedSelector struct {
	masses []float64
	rows   []int // original row per sorted position
}

func (s *sortedSelector) Len() int           { return len(s.masses) }
func (s *sortedSelector) Less(i, j int) bool { return s.masses[i] < s.masses[j] }
func (s *sortedSelector) Swap(i, j int) {
	s.masses[i], s.masses[j] = s.masses[j], s.masses[i]
	s.rows[i], s.rows[j] = s.rows[j], s.rows[i]
}

func (s *sortedSelector) InWindow(lo, hi float64) []int {
	i1 := sort.Search(len(s.masses), func(i int) bool { return s.masses[i] >= lo })
	i2 := sort.Search(len(s.masses), func(i int) bool { return s.masses[i] > hi })
	if i1 >= i2 {
		return nil
	}
	rows := append([]int(nil), s.rows[i1:i2]...)
	sort.Ints(rows)
	return rows
}
