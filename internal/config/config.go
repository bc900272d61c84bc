// Package config defines service configuration and its loading.
//
// Values are layered: compiled-in defaults, then an optional YAML file named by
// SHEPHERD_CONFIG, then SHEPHERD_* environment variables.
package config

import (
	"github.com/okian/shepherd/internal/domain/forecast/attendance"
	"github.com/okian/shepherd/internal/domain/forecast/growth"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps request bodies; snapshots travel in the body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// RateLimitRPS and RateLimitBurst size the API token bucket. RPS <= 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Request defaults.
	ForecastPeriods  int  `koanf:"forecast_periods"`
	BiWeekly         bool `koanf:"bi_weekly"`
	AnnualYearsAhead int  `koanf:"annual_years_ahead"`
	GrowthWeeksAhead int  `koanf:"growth_weeks_ahead"`

	// Attendance model tunables.
	RegressionDegree   int     `koanf:"regression_degree"`
	MinTrainingRecords int     `koanf:"min_training_records"`
	RegularConfidence  float64 `koanf:"regular_confidence"`
	SpecialConfidence  float64 `koanf:"special_confidence"`
	ConfidenceDecay    float64 `koanf:"confidence_decay"`
	ConfidenceFloor    float64 `koanf:"confidence_floor"`
	ClampLow           float64 `koanf:"clamp_low"`
	ClampHigh          float64 `koanf:"clamp_high"`

	// Growth simulation tunables.
	DefaultConversionRate  float64 `koanf:"default_conversion_rate"`
	DefaultConversionWeeks float64 `koanf:"default_conversion_weeks"`
	SeekerInflowPerWeek    float64 `koanf:"seeker_inflow_per_week"`
}

// New returns a Config holding the defaults.
func New() *Config {
	a := attendance.DefaultParams()
	g := growth.DefaultParams()

	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		MaxBodyBytes:     8 << 20,
		RateLimitRPS:     50,
		RateLimitBurst:   100,
		ForecastPeriods:  4,
		BiWeekly:         true,
		AnnualYearsAhead: 1,
		GrowthWeeksAhead: 12,

		RegressionDegree:   a.Degree,
		MinTrainingRecords: a.MinRecords,
		RegularConfidence:  a.RegularConfidence,
		SpecialConfidence:  a.SpecialConfidence,
		ConfidenceDecay:    a.ConfidenceDecay,
		ConfidenceFloor:    a.ConfidenceFloor,
		ClampLow:           a.ClampLow,
		ClampHigh:          a.ClampHigh,

		DefaultConversionRate:  g.DefaultRate,
		DefaultConversionWeeks: g.DefaultWeeks,
		SeekerInflowPerWeek:    g.WeeklyInflow,
	}
}

// AttendanceParams returns the attendance tunables.
func (c *Config) AttendanceParams() attendance.Params {
	p := attendance.DefaultParams()
	p.Degree = c.RegressionDegree
	p.MinRecords = c.MinTrainingRecords
	p.RegularConfidence = c.RegularConfidence
	p.SpecialConfidence = c.SpecialConfidence
	p.ConfidenceDecay = c.ConfidenceDecay
	p.ConfidenceFloor = c.ConfidenceFloor
	p.ClampLow = c.ClampLow
	p.ClampHigh = c.ClampHigh
	return p
}

// GrowthParams returns the growth simulation tunables.
func (c *Config) GrowthParams() growth.Params {
	p := growth.DefaultParams()
	p.DefaultRate = c.DefaultConversionRate
	p.DefaultWeeks = c.DefaultConversionWeeks
	p.WeeklyInflow = c.SeekerInflowPerWeek
	return p
}
