package regression

import "errors"

var (
	// ErrTooFewPoints is returned when there are fewer points than coefficients.
	ErrTooFewPoints = errors.New("regression: too few points")
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("regression: x and y lengths differ")
	// ErrDegenerate is returned when x has too few distinct values for the degree.
	ErrDegenerate = errors.New("regression: degenerate input")
	// ErrNotFinite is returned when an input or coefficient is NaN or infinite.
	ErrNotFinite = errors.New("regression: non-finite value")
	// ErrSingular is returned when the least squares system cannot be solved.
	ErrSingular = errors.New("regression: singular system")
)
