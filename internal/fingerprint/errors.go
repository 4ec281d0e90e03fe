package fingerprint

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by Fingerprint when one of the input tables
// has not been loaded.
var ErrNotLoaded = errors.New("fingerprint: data not loaded")

// SchemaError reports a required column that is missing from an input
// table or whose values cannot be read as the required type. It is
// fatal to the operation that found it; a previously computed result
// set stays available.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table, column %q: %v", e.Table, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
