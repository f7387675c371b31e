package core

import (
	"errors"
	"fmt"
)

// ErrInsufficientSamples is returned when the moderated t-test cannot be fitted.
var ErrInsufficientSamples = errors.New("insufficient complete rows for variance estimation")

// ErrDegenerateCell marks a candidate count cell whose occupancy is zero.
var ErrDegenerateCell = errors.New("count cell has zero occupancy")

// SchemaError reports a structural problem with an input table or sample design.
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Field, e.Message)
}

// FitError is returned by the quantitative tester when too few proteins carry
// replicated data. It unwraps to ErrInsufficientSamples.
type FitError struct {
	Condition    string
	CompleteRows int
	Required     int
}

func (e *FitError) Error() string {
	return fmt.Sprintf("cannot fit moderated t-test for %q: %d proteins with replicated ratios, need %d",
		e.Condition, e.CompleteRows, e.Required)
}

func (e *FitError) Unwrap() error {
	return ErrInsufficientSamples
}
