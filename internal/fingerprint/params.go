package fingerprint

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names the engine interprets. Every other PSM column is opaque
// and passes through to the results untouched.
const (
	// ScoreColumn holds the identification confidence score.
	ScoreColumn = "Hyperscore"
	// ChargeColumn holds the precursor charge state.
	ChargeColumn = "Charge"
	// DefaultReferenceMassColumn is the recalibrated precursor mass as
	// written by FragPipe.
	DefaultReferenceMassColumn = "Calibrated Observed Mass"
	// PeakMZColumn is the mass column of the peak list.
	PeakMZColumn = "m/z"
)

// Params are the tunable matching parameters. They are applied as
// given: a non-positive tolerance or an empty charge list leads to
// empty results, not to an error.
type Params struct {
	PPMTolerance        float64
	ConfidenceThreshold float64
	AllowedCharges      []int
	ReferenceMassColumn string
}

// DefaultParams returns the parameters used when the caller sets none.
func DefaultParams() Params {
	return Params{
		PPMTolerance:        10,
		ConfidenceThreshold: 18.0,
		AllowedCharges:      []int{1},
		ReferenceMassColumn: DefaultReferenceMassColumn,
	}
}

// ParseCharges parses a comma separated charge state list such as
// "1,2". Whitespace around items is ignored, empty items are skipped.
func ParseCharges(s string) ([]int, error) {
	var charges []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("charge state %q: %w", part, err)
		}
		charges = append(charges, c)
	}
	return charges, nil
}
