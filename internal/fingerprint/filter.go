package fingerprint

import (
	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

// filterPSMs applies the confidence and charge criteria, returning an
// independent copy of the surviving rows in their original order. A
// row survives iff its score is strictly above the threshold and its
// charge is one of the allowed states.
func filterPSMs(psms *table.Table, p Params) (*table.Table, error) {
	scores, err := psms.Floats(ScoreColumn)
	if err != nil {
		return nil, &SchemaError{Table: "PSM", Column: ScoreColumn, Err: err}
	}
	charges, err := psms.Floats(ChargeColumn)
	if err != nil {
		return nil, &SchemaError{Table: "PSM", Column: ChargeColumn, Err: err}
	}

	var keep []int
	for i := range scores {
		if scores[i] > p.ConfidenceThreshold && chargeAllowed(charges[i], p.AllowedCharges) {
			keep = append(keep, i)
		}
	}
	return psms.Subset(keep), nil
}

// chargeAllowed compares numerically so a charge written as "2.0"
// still matches the state 2. NaN (missing charge) matches nothing.
func chargeAllowed(c float64, allowed []int) bool {
	for _, a := range allowed {
		if c == float64(a) {
			return true
		}
	}
	return false
}
