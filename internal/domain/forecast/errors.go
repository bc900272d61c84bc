// Package forecast defines the failure kinds shared by the forecasters.
//
// Every forecaster returns a usable value next to the error: false, an empty
// slice, the insufficient_data label, or a flat projection. Callers branch on
// the kind with errors.Is.
package forecast

import (
	"errors"
	"strings"
)

// Sentinel kinds.
var (
	// ErrInsufficientData means fewer than the minimum records survived filtering.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFitFailure means the regression could not be fitted.
	ErrFitFailure = errors.New("fit failure")
	// ErrPredictBeforeTrain means a forecast was requested without a trained model.
	ErrPredictBeforeTrain = errors.New("predict before train")
	// ErrMalformedRecord means a record is missing a required field.
	ErrMalformedRecord = errors.New("malformed record")
)

// Error carries the failing operation, its kind and an optional cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewKind returns an Error of the given kind without a cause.
func NewKind(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an Error of the given kind caused by err.
func WrapKind(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if e.Kind != nil {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindName returns a stable snake_case label for err's kind, used in metrics and
// API responses. Unknown errors are "internal".
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrFitFailure):
		return "fit_failure"
	case errors.Is(err, ErrPredictBeforeTrain):
		return "predict_before_train"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	default:
		return "internal"
	}
}
