package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

func fv(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// FragPipe-style PSM header used by the test tables.
var psmColumns = []string{"Spectrum", "Peptide", "Charge", "Hyperscore", "Calibrated Observed Mass", "Protein"}

func psmRow(peptide string, charge int, score, refMass float64) []string {
	return []string{
		"run1." + peptide,
		peptide,
		strconv.Itoa(charge),
		fv(score),
		fv(refMass),
		"sp|TEST|" + peptide,
	}
}

func psmTable(rows ...[]string) *table.Table {
	return table.New(append([]string(nil), psmColumns...), rows)
}

func peakTable(mzs ...float64) *table.Table {
	rows := make([][]string, len(mzs))
	for i, mz := range mzs {
		rows[i] = []string{fv(mz), "100"}
	}
	return table.New([]string{"m/z", "intensity"}, rows)
}

func resultCSV(t *testing.T, res *Results) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf, res.Table(), ','))
	return buf.String()
}

func TestFingerprintScenario(t *testing.T) {
	// Peak at m/z 1000.0 with 10 ppm tolerance: the window is
	// [1000 - 0.01, 1000 + 0.01].
	f := New()
	f.LoadTables(peakTable(1000.0), psmTable(
		psmRow("INWINDOW", 2, 20, 1000.005),
		psmRow("OUTSIDE", 1, 25, 999.5),
	))
	f.SetParameters(Params{
		PPMTolerance:        10,
		ConfidenceThreshold: 18.0,
		AllowedCharges:      []int{1, 2},
	})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	m := res.Matches()[0]
	assert.Equal(t, 1000.0, m.PeakMZ)
	assert.InDelta(t, 5.0, m.MassErrorPPM, 1e-9)

	row := res.Row(0)
	cols := res.Columns()
	require.Equal(t, []string{"MALDI M/Z Value", "Spectrum", "Peptide", "Charge", "Hyperscore", "Calibrated Observed Mass", "Protein", "Mass Error (ppm)"}, cols)
	assert.Equal(t, "1000", row[0])
	assert.Equal(t, "INWINDOW", row[2])
	assert.Equal(t, "sp|TEST|INWINDOW", row[6])
}

func TestWindowBoundsInclusive(t *testing.T) {
	mz := 1000.0
	ppm := 10.0
	tolDa := ppm / 1e6 * mz
	lower := mz - tolDa
	upper := mz + tolDa

	f := New()
	f.LoadTables(peakTable(mz), psmTable(
		psmRow("ATLOWER", 1, 20, lower),
		psmRow("ATUPPER", 1, 20, upper),
		psmRow("BELOW", 1, 20, math.Nextafter(lower, math.Inf(-1))),
		psmRow("ABOVE", 1, 20, math.Nextafter(upper, math.Inf(1))),
	))
	f.SetParameters(Params{PPMTolerance: ppm, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "ATLOWER", res.Row(0)[2])
	assert.Equal(t, "ATUPPER", res.Row(1)[2])
}

func TestStrictThreshold(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0), psmTable(
		psmRow("EXACT", 1, 18.0, 1000.001),
		psmRow("ABOVE", 1, 18.0001, 1000.001),
	))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "ABOVE", res.Row(0)[2])
}

func TestMassErrorRoundTrip(t *testing.T) {
	f := New()
	f.LoadTables(
		peakTable(742.33, 1523.67, 2211.08),
		psmTable(
			psmRow("PEPA", 1, 30, 742.3301),
			psmRow("PEPB", 1, 30, 1523.6685),
			psmRow("PEPC", 1, 30, 2211.0921),
		),
	)
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	refs := []float64{742.3301, 1523.6685, 2211.0921}
	for i, m := range res.Matches() {
		back := m.PeakMZ * (1 + m.MassErrorPPM/1e6)
		assert.InEpsilon(t, refs[i], back, 1e-12, "match %d", i)
	}
}

func TestSharedPSMTwoPeaks(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0, 1000.002), psmTable(
		psmRow("SHARED", 1, 20, 1000.005),
	))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	ms := res.Matches()
	assert.Equal(t, 1000.0, ms[0].PeakMZ)
	assert.Equal(t, 1000.002, ms[1].PeakMZ)
	assert.Greater(t, ms[0].MassErrorPPM, ms[1].MassErrorPPM)
	assert.Equal(t, res.Row(0)[2], res.Row(1)[2], "both rows carry the same PSM fields")
}

func TestResultOrderIsPeakThenRow(t *testing.T) {
	// Reference masses are deliberately not sorted, so the sorted
	// selector has to map back to source row order within each peak.
	f := New()
	f.LoadTables(peakTable(1000.0, 2000.0), psmTable(
		psmRow("P1HIGH", 1, 20, 1000.004),
		psmRow("P2", 1, 20, 2000.001),
		psmRow("P1LOW", 1, 20, 1000.001),
	))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "P1HIGH", res.Row(0)[2])
	assert.Equal(t, "P1LOW", res.Row(1)[2])
	assert.Equal(t, "P2", res.Row(2)[2])
}

func TestIdempotence(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0, 1500.0, 2000.0), psmTable(
		psmRow("PEPA", 1, 20, 1000.003),
		psmRow("PEPB", 1, 20, 1499.997),
		psmRow("PEPC", 1, 20, 2000.02),
	))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res1, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	out1 := resultCSV(t, res1)

	res2, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	out2 := resultCSV(t, res2)

	require.Equal(t, out1, out2)
}

func TestSelectorsProduceIdenticalResults(t *testing.T) {
	// A larger synthetic set, including duplicates and near-boundary
	// masses.
	var peaks []float64
	var rows [][]string
	for i := 0; i < 150; i++ {
		mz := 500 + 13.7*float64(i)
		peaks = append(peaks, mz)
		rows = append(rows,
			psmRow(fmt.Sprintf("PEP%dA", i), 1, 20, mz*(1+4e-6)),
			psmRow(fmt.Sprintf("PEP%dB", i), 1, 20, mz*(1-12e-6)),
			psmRow(fmt.Sprintf("PEP%dC", i), 1, 20, mz),
			psmRow(fmt.Sprintf("PEP%dD", i), 1, 20, mz),
		)
	}

	run := func(build NewSelector) string {
		f := New(WithSelector(build))
		f.LoadTables(peakTable(peaks...), table.New(append([]string(nil), psmColumns...), rows))
		f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})
		res, err := f.Fingerprint(context.Background())
		require.NoError(t, err)
		return resultCSV(t, res)
	}

	require.Equal(t, run(LinearSelector), run(SortedSelector))
}

func TestEmptyPeakList(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(), psmTable(psmRow("PEPA", 1, 20, 1000.0)))
	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestMissingPeakColumnIsEmptyResult(t *testing.T) {
	f := New()
	f.LoadTables(
		table.New([]string{"mass"}, [][]string{{"1000.0"}}),
		psmTable(psmRow("PEPA", 1, 20, 1000.0)),
	)
	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestNoSurvivorsIsNonFatal(t *testing.T) {
	progress := &MemoryProgress{}
	f := New(WithProgress(progress))
	f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.001)))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 99, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Contains(t, progress.Lines(), "Warning: no PSMs remained after filtering, nothing to match.")
}

func TestNotLoaded(t *testing.T) {
	f := New()
	_, err := f.Fingerprint(context.Background())
	require.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, 0, f.Results().Len())

	f.LoadTables(peakTable(1000.0), nil)
	_, err = f.Fingerprint(context.Background())
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestSchemaErrorKeepsPriorResults(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.005)))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	f.SetParameters(Params{
		PPMTolerance:        10,
		ConfidenceThreshold: 18.0,
		AllowedCharges:      []int{1},
		ReferenceMassColumn: "No Such Column",
	})
	_, err = f.Fingerprint(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "No Such Column", schemaErr.Column)
	assert.Equal(t, 1, f.Results().Len(), "failed run must not clobber the previous result set")
}

func TestSchemaErrorOnMissingFilterColumns(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0), table.New(
		[]string{"Peptide", "Calibrated Observed Mass"},
		[][]string{{"PEPA", "1000.0"}},
	))
	_, err := f.Fingerprint(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ScoreColumn, schemaErr.Column)
	require.ErrorIs(t, err, table.ErrNoColumn)
}

func TestSchemaErrorOnUnparsableColumn(t *testing.T) {
	f := New()
	rows := [][]string{psmRow("PEPA", 1, 20, 1000.005)}
	rows[0][3] = "not-a-number"
	f.LoadTables(peakTable(1000.0), psmTable(rows...))
	_, err := f.Fingerprint(context.Background())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ScoreColumn, schemaErr.Column)
}

func TestCancellationKeepsPriorResults(t *testing.T) {
	f := New()
	f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.005)))
	f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})

	res, err := f.Fingerprint(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fingerprint(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.Results().Len())
}

func TestPermissiveParameters(t *testing.T) {
	t.Run("negative tolerance", func(t *testing.T) {
		f := New()
		f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.0)))
		f.SetParameters(Params{PPMTolerance: -10, ConfidenceThreshold: 18.0, AllowedCharges: []int{1}})
		res, err := f.Fingerprint(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, res.Len(), "inverted window matches nothing")
	})

	t.Run("empty charge list", func(t *testing.T) {
		f := New()
		f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.0)))
		f.SetParameters(Params{PPMTolerance: 10, ConfidenceThreshold: 18.0})
		res, err := f.Fingerprint(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, res.Len())
	})
}

func TestProgressMessages(t *testing.T) {
	var peaks []float64
	for i := 0; i < 250; i++ {
		peaks = append(peaks, 500+float64(i))
	}
	progress := &MemoryProgress{}
	f := New(WithProgress(progress))
	f.LoadTables(peakTable(peaks...), psmTable(psmRow("PEPA", 1, 20, 600.0)))
	f.SetParameters(DefaultParams())

	_, err := f.Fingerprint(context.Background())
	require.NoError(t, err)

	lines := progress.Lines()
	assert.Contains(t, lines, "-> Peak list loaded. Shape: (250, 2)")
	assert.Contains(t, lines, "  - PPM Tolerance: 10")
	assert.Contains(t, lines, "-> Initial PSM count: 1")
	assert.Contains(t, lines, "-> PSMs after filtering: 1")
	assert.Contains(t, lines, "  - Processing peak 100/250...")
	assert.Contains(t, lines, "  - Processing peak 200/250...")
	assert.NotContains(t, lines, "  - Processing peak 250/250...")
	assert.Contains(t, lines, "Fingerprinting complete. Found 1 total matches.")
}

func TestProgressAbsenceDoesNotChangeResults(t *testing.T) {
	run := func(opts ...Option) string {
		f := New(opts...)
		f.LoadTables(peakTable(1000.0), psmTable(psmRow("PEPA", 1, 20, 1000.005)))
		f.SetParameters(DefaultParams())
		res, err := f.Fingerprint(context.Background())
		require.NoError(t, err)
		return resultCSV(t, res)
	}
	require.Equal(t, run(), run(WithProgress(&MemoryProgress{})))
}
