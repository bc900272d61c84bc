// Package attendance learns a seasonal curve over past attendance counts and
// projects counts for future services with a decaying confidence.
package attendance

import (
	"math"
	"slices"
	"time"

	"github.com/okian/shepherd/internal/domain/features"
	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/domain/regression"
)

// Observation is one past event and its head count.
type Observation struct {
	Date      string `json:"date"`
	Count     *int   `json:"count"`
	EventType string `json:"eventType,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Prediction is the forecast for one future service.
type Prediction struct {
	Date       string  `json:"date"`
	DateLabel  string  `json:"dateLabel"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
	IsSpecial  bool    `json:"isSpecial"`
	WeekNumber int     `json:"weekNumber"`
}

// Model is a trained attendance curve. It is immutable and safe to share.
type Model struct {
	poly    regression.Polynomial
	stats   regression.Summary
	samples int
	params  Params
}

// Stats returns the summary of the training counts.
func (m *Model) Stats() regression.Summary { return m.stats }

// Samples returns the number of records the model was trained on.
func (m *Model) Samples() int { return m.samples }

type sample struct {
	at    time.Time
	count int
	kind  string
}

// valid drops records without a parseable date or a non-negative count, then
// sorts the rest by date. Records on the same date keep their input order.
func valid(obs []Observation) []sample {
	out := make([]sample, 0, len(obs))
	for _, o := range obs {
		if o.Count == nil || *o.Count < 0 {
			continue
		}
		at, ok := model.ParseDate(o.Date)
		if !ok {
			continue
		}
		out = append(out, sample{at: at, count: *o.Count, kind: o.EventType})
	}
	slices.SortStableFunc(out, func(a, b sample) int { return a.at.Compare(b.at) })
	return out
}

// Train fits a model with the default tunables.
func Train(obs []Observation) (*Model, error) {
	return DefaultParams().Train(obs)
}

// Train fits the attendance curve. Each record's composite feature uses its
// position in date order as the trend index.
func (p Params) Train(obs []Observation) (*Model, error) {
	const op = "attendance.Train"

	samples := valid(obs)
	if len(samples) < p.MinRecords {
		return nil, forecast.NewKind(op, forecast.ErrInsufficientData)
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = features.Composite(features.Extract(s.at, s.kind), i)
		ys[i] = float64(s.count)
	}

	poly, err := regression.FitPolynomial(xs, ys, p.Degree)
	if err != nil {
		return nil, forecast.WrapKind(op, forecast.ErrFitFailure, err)
	}

	return &Model{
		poly:    poly,
		stats:   regression.Summarize(ys),
		samples: len(samples),
		params:  p,
	}, nil
}

// Forecast predicts periodsAhead services after start, one or two weeks apart.
func (m *Model) Forecast(start time.Time, periodsAhead int, eventType string, biWeekly bool) []Prediction {
	if periodsAhead <= 0 {
		return []Prediction{}
	}
	step := 1
	if biWeekly {
		step = 2
	}

	lo := m.params.ClampLow * m.stats.Min
	hi := m.params.ClampHigh * m.stats.Max
	loInt := int(math.Ceil(lo))
	hiInt := int(math.Floor(hi))

	out := make([]Prediction, 0, periodsAhead)
	for period := 1; period <= periodsAhead; period++ {
		at := start.AddDate(0, 0, 7*step*period)
		v := features.Extract(at, eventType)

		raw := m.poly.Predict(features.Composite(v, m.samples-1+period))
		if math.IsNaN(raw) {
			raw = m.stats.Mean
		}
		count := int(math.Round(math.Max(lo, math.Min(hi, raw))))

		out = append(out, Prediction{
			Date:       at.Format(model.DateLayout),
			DateLabel:  at.Format("Jan 02"),
			Count:      min(max(count, loInt), hiInt),
			Confidence: m.params.Confidence(period, eventType),
			IsSpecial:  v.IsSpecial,
			WeekNumber: period,
		})
	}
	return out
}

// Forecast is Model.Forecast that refuses a nil model.
func Forecast(m *Model, start time.Time, periodsAhead int, eventType string, biWeekly bool) ([]Prediction, error) {
	if m == nil {
		return []Prediction{}, forecast.NewKind("attendance.Forecast", forecast.ErrPredictBeforeTrain)
	}
	return m.Forecast(start, periodsAhead, eventType, biWeekly), nil
}

// Confidence returns the default confidence for a prediction periodsAhead out.
func Confidence(periodsAhead int, eventType string) float64 {
	return DefaultParams().Confidence(periodsAhead, eventType)
}

// Confidence decays linearly from the base for the event type down to the floor.
// The result is rounded to two decimals.
func (p Params) Confidence(periodsAhead int, eventType string) float64 {
	base := p.RegularConfidence
	if eventType == model.EventTypeSpecial {
		base = p.SpecialConfidence
	}
	c := math.Max(p.ConfidenceFloor, base-p.ConfidenceDecay*float64(periodsAhead))
	return math.Round(c*100) / 100
}
