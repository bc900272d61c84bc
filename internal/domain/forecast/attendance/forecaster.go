package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/pkg/logger"
)

// Forecaster keeps the last successfully trained model. A failed Train leaves the
// previous model in place. Give each independent forecasting task its own
// Forecaster.
type Forecaster struct {
	mu     sync.RWMutex
	model  *Model
	params Params
	log    logger.Logger
}

// ForecasterOption configures a Forecaster.
type ForecasterOption func(*Forecaster)

// WithParams overrides the default tunables.
func WithParams(p Params) ForecasterOption {
	return func(f *Forecaster) {
		f.params = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ForecasterOption {
	return func(f *Forecaster) {
		if l != nil {
			f.log = l
		}
	}
}

// NewForecaster returns an untrained Forecaster.
func NewForecaster(opts ...ForecasterOption) *Forecaster {
	f := &Forecaster{params: DefaultParams()}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Named("attendance")
	}
	return f
}

// Train fits a new model and reports whether it succeeded.
func (f *Forecaster) Train(ctx context.Context, obs []Observation) bool {
	_, err := f.TrainModel(ctx, obs)
	return err == nil
}

// TrainModel is Train returning the new model or the classified error.
func (f *Forecaster) TrainModel(ctx context.Context, obs []Observation) (*Model, error) {
	m, err := f.params.Train(obs)
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		f.log.Warn(ctx, "insufficient data for training",
			logger.Int("records", len(obs)),
			logger.Int("required", f.params.MinRecords))
		return nil, err
	case err != nil:
		f.log.Error(ctx, "model training failed", logger.Error(err))
		return nil, err
	}

	f.mu.Lock()
	f.model = m
	f.mu.Unlock()

	stats := m.Stats()
	f.log.Info(ctx, "attendance model trained",
		logger.Int("samples", m.Samples()),
		logger.Float64("mean", stats.Mean),
		logger.Float64("min", stats.Min),
		logger.Float64("max", stats.Max))
	return m, nil
}

// Forecast predicts with the last trained model. Before any successful training
// it logs an error and returns an empty slice.
func (f *Forecaster) Forecast(ctx context.Context, start time.Time, periodsAhead int, eventType string, biWeekly bool) []Prediction {
	out, err := Forecast(f.Model(), start, periodsAhead, eventType, biWeekly)
	if err != nil {
		f.log.Error(ctx, "model not trained", logger.Error(err))
	}
	return out
}

// Model returns the current model, nil before the first successful training.
func (f *Forecaster) Model() *Model {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.model
}
