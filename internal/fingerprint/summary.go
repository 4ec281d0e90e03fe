package fingerprint

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults for Summarize, matching the report layout shown after a run.
const (
	DefaultErrorBins  = 50
	DefaultMZBinWidth = 10.0
)

// Summary condenses a result set into the numbers behind the
// post-analysis report: the mass error distribution, identifications
// per m/z bin, and score versus mass error pairs.
type Summary struct {
	Matches        int          `json:"matches"`
	MassError      ErrorStats   `json:"massError"`
	ErrorHistogram Histogram    `json:"errorHistogram"`
	MZHistogram    Histogram    `json:"mzHistogram"`
	ScoreVsError   []ScorePoint `json:"scoreVsError,omitempty"`
}

// ErrorStats describes the distribution of the signed mass errors.
type ErrorStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// Histogram is a fixed-bin count over a closed interval. Edges has one
// more element than Counts; the last bin includes its upper edge.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// ScorePoint pairs a match's confidence score with its mass error.
type ScorePoint struct {
	Score    float64 `json:"score"`
	ErrorPPM float64 `json:"errorPpm"`
}

// Summarize computes the summary of a result set with default binning.
// An empty result set yields a zero Summary with Matches == 0.
func Summarize(r *Results) Summary {
	return SummarizeBins(r, DefaultErrorBins, DefaultMZBinWidth)
}

// SummarizeBins is Summarize with explicit histogram binning: the mass
// error axis is split into errorBins equal bins, the m/z axis into
// bins of mzBinWidth Dalton aligned to multiples of the width.
func SummarizeBins(r *Results, errorBins int, mzBinWidth float64) Summary {
	s := Summary{Matches: r.Len()}
	if r.Len() == 0 {
		return s
	}

	errs := r.MassErrors()
	sorted := append([]float64(nil), errs...)
	sort.Float64s(sorted)
	s.MassError = ErrorStats{
		Mean:   stat.Mean(errs, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(errs) > 1 {
		s.MassError.StdDev = stat.StdDev(errs, nil)
	}
	s.ErrorHistogram = spanHistogram(sorted, errorBins)

	mzs := r.PeakMZs()
	sort.Float64s(mzs)
	s.MZHistogram = widthHistogram(mzs, mzBinWidth)

	if scores, ok := r.Scores(); ok {
		s.ScoreVsError = make([]ScorePoint, len(scores))
		for i := range scores {
			s.ScoreVsError[i] = ScorePoint{Score: scores[i], ErrorPPM: errs[i]}
		}
	}
	return s
}

// spanHistogram splits [min, max] of the sorted values into n equal
// bins.
func spanHistogram(sorted []float64, n int) Histogram {
	if n < 1 {
		n = DefaultErrorBins
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return Histogram{
			Edges:  []float64{lo, hi},
			Counts: []float64{float64(len(sorted))},
		}
	}
	edges := floats.Span(make([]float64, n+1), lo, hi)
	return Histogram{Edges: edges, Counts: countBins(edges, sorted)}
}

// widthHistogram bins the sorted values into fixed-width bins aligned
// to multiples of the width.
func widthHistogram(sorted []float64, width float64) Histogram {
	if width <= 0 {
		width = DefaultMZBinWidth
	}
	lo := math.Floor(sorted[0]/width) * width
	n := int((sorted[len(sorted)-1]-lo)/width) + 1
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	return Histogram{Edges: edges, Counts: countBins(edges, sorted)}
}

// countBins counts the sorted values per bin. The dividers passed to
// stat.Histogram are widened at the top so a value equal to the last
// edge lands in the last bin instead of falling outside.
func countBins(edges []float64, sorted []float64) []float64 {
	div := append([]float64(nil), edges...)
	div[len(div)-1] = math.Nextafter(div[len(div)-1], math.Inf(1))
	return stat.Histogram(nil, div, sorted, nil)
}
