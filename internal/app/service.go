// Package service runs the forecasters over request snapshots and records
// their metrics. It holds no branch data between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/forecast/attendance"
	"github.com/okian/shepherd/internal/domain/forecast/growth"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/okian/shepherd/pkg/metrics"
)

// Components, used as metric labels and dashboard sections.
const (
	ComponentAttendance = "attendance"
	ComponentGrowth     = "growth"
	ComponentVolunteers = "volunteers"
	ComponentAnnual     = "annual"
	ComponentComparison = "comparison"
)

// Defaults are applied to request fields left empty.
type Defaults struct {
	PeriodsAhead int
	BiWeekly     bool
	YearsAhead   int
	WeeksAhead   int
}

// Service implements the API dependencies for the analytics endpoints.
type Service struct {
	mu sync.RWMutex

	attendanceParams attendance.Params
	growthParams     growth.Params
	defaults         Defaults
	clock            func() time.Time

	started bool
	calls   map[string]*atomic.Int64
	errs    map[string]*atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAttendanceParams sets the attendance model tunables.
func WithAttendanceParams(p attendance.Params) Option {
	return func(s *Service) {
		s.attendanceParams = p
	}
}

// WithGrowthParams sets the growth simulation tunables.
func WithGrowthParams(p growth.Params) Option {
	return func(s *Service) {
		s.growthParams = p
	}
}

// WithDefaults sets the request defaults. Non-positive horizons are ignored.
func WithDefaults(d Defaults) Option {
	return func(s *Service) {
		if d.PeriodsAhead > 0 {
			s.defaults.PeriodsAhead = d.PeriodsAhead
		}
		if d.YearsAhead > 0 {
			s.defaults.YearsAhead = d.YearsAhead
		}
		if d.WeeksAhead > 0 {
			s.defaults.WeeksAhead = d.WeeksAhead
		}
		s.defaults.BiWeekly = d.BiWeekly
	}
}

// WithClock sets the source of "now" used to tell past events from future ones.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New constructs a Service with default tunables.
func New(opts ...Option) *Service {
	s := &Service{
		attendanceParams: attendance.DefaultParams(),
		growthParams:     growth.DefaultParams(),
		defaults: Defaults{
			PeriodsAhead: 4,
			BiWeekly:     true,
			YearsAhead:   1,
			WeeksAhead:   12,
		},
		clock: time.Now,
		calls: make(map[string]*atomic.Int64),
		errs:  make(map[string]*atomic.Int64),
	}
	for _, c := range []string{ComponentAttendance, ComponentGrowth, ComponentVolunteers, ComponentAnnual, ComponentComparison} {
		s.calls[c] = &atomic.Int64{}
		s.errs[c] = &atomic.Int64{}
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("periodsAhead", s.defaults.PeriodsAhead),
		logger.Int("degree", s.attendanceParams.Degree),
		logger.Int("minRecords", s.attendanceParams.MinRecords),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make(map[string]int64, len(s.calls))
	errs := make(map[string]int64, len(s.errs))
	for c, n := range s.calls {
		calls[c] = n.Load()
	}
	for c, n := range s.errs {
		errs[c] = n.Load()
	}

	return map[string]any{
		"started":      s.started,
		"periodsAhead": s.defaults.PeriodsAhead,
		"biWeekly":     s.defaults.BiWeekly,
		"calls":        calls,
		"errors":       errs,
	}
}

func (s *Service) now() time.Time {
	return s.clock()
}

// observe records the outcome of one component run.
func (s *Service) observe(ctx context.Context, component string, started time.Time, err error) {
	s.calls[component].Add(1)
	metrics.RecordAnalysisLatency(component, float64(time.Since(started).Microseconds())/1000)

	if err == nil {
		metrics.RecordForecast(component)
		return
	}
	s.errs[component].Add(1)
	kind := forecast.KindName(err)
	metrics.RecordForecastError(component, kind)

	if errors.Is(err, forecast.ErrInsufficientData) {
		s.logger.Warn(ctx, "not enough history", logger.String("component", component), logger.Error(err))
		return
	}
	s.logger.Error(ctx, "analysis failed", logger.String("component", component), logger.Error(err))
}

// parseDay parses an optional request date, falling back to def.
func parseDay(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, ok := model.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrInvalidRequest, value)
	}
	return t, nil
}
