package attendance

import "fmt"

// Params are the tunables of the attendance model.
type Params struct {
	Degree          int
	MinRecords      int
	MinTrendRecords int

	RegularConfidence float64
	SpecialConfidence float64
	ConfidenceDecay   float64 // per period ahead
	ConfidenceFloor   float64

	ClampLow  float64 // multiplier of the training minimum
	ClampHigh float64 // multiplier of the training maximum

	TrendThreshold float64 // relative change between halves, 0.10 = 10%
}

// DefaultParams returns the stock tunables.
func DefaultParams() Params {
	return Params{
		Degree:            3,
		MinRecords:        5,
		MinTrendRecords:   4,
		RegularConfidence: 0.85,
		SpecialConfidence: 0.70,
		ConfidenceDecay:   0.05,
		ConfidenceFloor:   0.50,
		ClampLow:          0.8,
		ClampHigh:         1.2,
		TrendThreshold:    0.10,
	}
}

// Validate checks the tunables are usable.
func (p Params) Validate() error {
	switch {
	case p.Degree < 1:
		return fmt.Errorf("attendance: degree must be positive, got %d", p.Degree)
	case p.MinRecords < p.Degree+1:
		return fmt.Errorf("attendance: min records %d cannot fit degree %d", p.MinRecords, p.Degree)
	case p.MinTrendRecords < 2:
		return fmt.Errorf("attendance: min trend records must be at least 2, got %d", p.MinTrendRecords)
	case !unit(p.RegularConfidence) || !unit(p.SpecialConfidence) || !unit(p.ConfidenceFloor):
		return fmt.Errorf("attendance: confidences must be in (0,1]")
	case p.ConfidenceDecay < 0:
		return fmt.Errorf("attendance: confidence decay must not be negative")
	case p.ClampLow < 0 || p.ClampLow > 1 || p.ClampHigh < 1:
		return fmt.Errorf("attendance: clamp bounds out of order: low=%v high=%v", p.ClampLow, p.ClampHigh)
	case p.TrendThreshold < 0:
		return fmt.Errorf("attendance: trend threshold must not be negative")
	}
	return nil
}

func unit(v float64) bool {
	return v > 0 && v <= 1
}
