// Package fingerprint matches observed MALDI peak masses against
// peptide-spectrum matches from a DDA experiment, within a configurable
// ppm mass tolerance. Each match records the signed ppm deviation
// between the PSM's reference mass and the peak's m/z.
package fingerprint

import (
	"context"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

// progressEvery is the peak-loop reporting interval.
const progressEvery = 100

// Fingerprinter runs the peak-to-PSM matching pipeline over a loaded
// peak list and PSM table. Methods are not safe for concurrent use;
// run at most one analysis per instance at a time, or give each
// concurrent analysis its own instance.
type Fingerprinter struct {
	progress Progress
	selector NewSelector

	peaks    *table.Table
	psms     *table.Table
	filtered *table.Table
	results  *Results
	params   Params
}

// Option configures a Fingerprinter.
type Option func(*Fingerprinter)

// WithProgress directs status messages to sink. The default discards
// them.
func WithProgress(sink Progress) Option {
	return func(f *Fingerprinter) {
		if sink != nil {
			f.progress = sink
		}
	}
}

// WithSelector replaces the range-query strategy used to find the PSMs
// inside a peak's tolerance window. The default is SortedSelector.
func WithSelector(build NewSelector) Option {
	return func(f *Fingerprinter) {
		if build != nil {
			f.selector = build
		}
	}
}

// New returns a Fingerprinter with default parameters and no data.
func New(opts ...Option) *Fingerprinter {
	f := &Fingerprinter{
		progress: NopProgress{},
		selector: SortedSelector,
		params:   DefaultParams(),
		results:  emptyResults(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadTables sets the peak list and PSM table for the next analysis
// and discards any previous filtering. The result set of an earlier
// successful analysis stays available until a new one succeeds.
func (f *Fingerprinter) LoadTables(peaks, psms *table.Table) {
	f.peaks = peaks
	f.psms = psms
	f.filtered = nil
	if peaks != nil {
		f.progress.Printf("-> Peak list loaded. Shape: (%d, %d)", peaks.NumRows(), peaks.NumCols())
	}
	if psms != nil {
		f.progress.Printf("-> PSM data loaded. Shape: (%d, %d)", psms.NumRows(), psms.NumCols())
	}
}

// SetParameters replaces the matching parameters without validating
// them. An empty reference mass column selects the default.
func (f *Fingerprinter) SetParameters(p Params) {
	if p.ReferenceMassColumn == "" {
		p.ReferenceMassColumn = DefaultReferenceMassColumn
	}
	f.params = p
	f.filtered = nil
	f.progress.Printf("Parameters updated:")
	f.progress.Printf("  - PPM Tolerance: %g", p.PPMTolerance)
	f.progress.Printf("  - Hyperscore Threshold: %g", p.ConfidenceThreshold)
	f.progress.Printf("  - Charge States: %v", p.AllowedCharges)
	f.progress.Printf("  - Reference Mass Column: %s", p.ReferenceMassColumn)
}

// Params returns the current parameters.
func (f *Fingerprinter) Params() Params { return f.params }

// Filtered returns the PSM table as reduced by the last analysis, or
// nil when filtering has not run for the current data and parameters.
func (f *Fingerprinter) Filtered() *table.Table { return f.filtered }

// Fingerprint filters the PSM table and matches every peak against the
// surviving PSMs. On success the returned result set also replaces the
// one held by the engine; on error the engine keeps the previous
// result set. The context is checked once per peak, so a cancelled run
// aborts between peaks and discards its partial matches.
func (f *Fingerprinter) Fingerprint(ctx context.Context) (*Results, error) {
	if f.peaks == nil || f.psms == nil {
		return nil, ErrNotLoaded
	}
	f.progress.Printf("Starting mass fingerprinting...")

	f.progress.Printf("Filtering PSMs...")
	filtered, err := filterPSMs(f.psms, f.params)
	if err != nil {
		return nil, err
	}
	f.filtered = filtered
	f.progress.Printf("-> Initial PSM count: %d", f.psms.NumRows())
	f.progress.Printf("-> PSMs after filtering: %d", filtered.NumRows())

	if filtered.NumRows() == 0 {
		f.progress.Printf("Warning: no PSMs remained after filtering, nothing to match.")
		f.results = newResults(filtered, nil)
		return f.results, nil
	}

	res, err := f.match(ctx, filtered)
	if err != nil {
		return nil, err
	}
	f.results = res
	f.progress.Printf("Fingerprinting complete. Found %d total matches.", res.Len())
	return res, nil
}

func (f *Fingerprinter) match(ctx context.Context, filtered *table.Table) (*Results, error) {
	refCol := f.params.ReferenceMassColumn
	refMasses, err := filtered.Floats(refCol)
	if err != nil {
		return nil, &SchemaError{Table: "PSM", Column: refCol, Err: err}
	}

	// A peak list without the m/z column contributes zero peaks, which
	// is an empty result, not a failure.
	var peakMZs []float64
	if f.peaks.HasColumn(PeakMZColumn) {
		if peakMZs, err = f.peaks.Floats(PeakMZColumn); err != nil {
			return nil, &SchemaError{Table: "peak", Column: PeakMZColumn, Err: err}
		}
	}

	f.progress.Printf("Matching peaks to filtered peptides...")
	sel := f.selector(refMasses)
	var matches []Match
	total := len(peakMZs)
	for i, mz := range peakMZs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if (i+1)%progressEvery == 0 {
			f.progress.Printf("  - Processing peak %d/%d...", i+1, total)
		}
		tolDa := f.params.PPMTolerance / 1e6 * mz
		for _, row := range sel.InWindow(mz-tolDa, mz+tolDa) {
			matches = append(matches, Match{
				PeakMZ:       mz,
				Row:          row,
				MassErrorPPM: (refMasses[row] - mz) / mz * 1e6,
			})
		}
	}
	return newResults(filtered, matches), nil
}

// Results returns the result set of the last successful analysis, or
// an empty set when none has run yet.
func (f *Fingerprinter) Results() *Results { return f.results }
