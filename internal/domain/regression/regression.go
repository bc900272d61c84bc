// Package regression holds the small numeric toolkit the forecasters share:
// summary statistics and least squares polynomial fitting.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of target values.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize returns the mean, population standard deviation, minimum and maximum
// of values. An empty sample yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// Polynomial is a fitted curve. Coefficients apply to the standardized input
// (x - center) / scale, lowest power first.
type Polynomial struct {
	coef   []float64
	center float64
	scale  float64
}

// Degree returns the polynomial degree.
func (p Polynomial) Degree() int {
	return len(p.coef) - 1
}

// Predict evaluates the polynomial at x.
func (p Polynomial) Predict(x float64) float64 {
	if len(p.coef) == 0 {
		return 0
	}
	z := (x - p.center) / p.scale
	y := 0.0
	for i := len(p.coef) - 1; i >= 0; i-- {
		y = y*z + p.coef[i]
	}
	return y
}

// FitPolynomial fits y ≈ Σ cᵢ·xⁱ for i in 0..degree by least squares.
func FitPolynomial(x, y []float64, degree int) (Polynomial, error) {
	if degree < 0 {
		return Polynomial{}, fmt.Errorf("regression: negative degree %d", degree)
	}
	if len(x) != len(y) {
		return Polynomial{}, ErrLengthMismatch
	}
	cols := degree + 1
	if len(x) < cols {
		return Polynomial{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(x), cols)
	}
	if !allFinite(x) || !allFinite(y) {
		return Polynomial{}, ErrNotFinite
	}
	if distinct(x) < cols {
		return Polynomial{}, fmt.Errorf("%w: %d distinct x values for degree %d", ErrDegenerate, distinct(x), degree)
	}

	center := stat.Mean(x, nil)
	scale := 0.0
	for _, v := range x {
		scale = math.Max(scale, math.Abs(v-center))
	}
	if scale == 0 {
		scale = 1
	}

	n := len(x)
	a := mat.NewDense(n, cols, nil)
	for i, v := range x {
		z := (v - center) / scale
		pow := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, pow)
			pow *= z
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return Polynomial{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = c.AtVec(j)
	}
	if !allFinite(coef) {
		return Polynomial{}, ErrNotFinite
	}

	return Polynomial{coef: coef, center: center, scale: scale}, nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
