package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/forecast/annual"
	"github.com/okian/shepherd/internal/domain/forecast/attendance"
	"github.com/okian/shepherd/internal/domain/forecast/growth"
	"github.com/okian/shepherd/internal/domain/forecast/volunteer"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/domain/regression"
	"github.com/okian/shepherd/internal/domain/report"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/okian/shepherd/pkg/metrics"
)

// AttendanceRequest tunes an attendance forecast. Empty fields take defaults.
type AttendanceRequest struct {
	StartDate    string `json:"startDate,omitempty"` // defaults to the latest past event
	PeriodsAhead int    `json:"periodsAhead,omitempty"`
	EventType    string `json:"eventType,omitempty"`
	BiWeekly     *bool  `json:"biWeekly,omitempty"`
}

// AttendanceResult is the outcome of an attendance forecast.
type AttendanceResult struct {
	Trained     bool                    `json:"trained"`
	Samples     int                     `json:"samples"`
	Stats       regression.Summary      `json:"stats"`
	Trend       attendance.Trend        `json:"trend"`
	Predictions []attendance.Prediction `json:"predictions"`
}

// ForecastAttendance trains on the snapshot's past events and predicts the next
// services. On InsufficientData or FitFailure the result carries the trend and no
// predictions.
func (s *Service) ForecastAttendance(ctx context.Context, snap model.Snapshot, req AttendanceRequest) (AttendanceResult, error) {
	return s.forecastAttendance(ctx, snap.Normalize(), req)
}

func (s *Service) forecastAttendance(ctx context.Context, snap model.Snapshot, req AttendanceRequest) (res AttendanceResult, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, ComponentAttendance, started, err) }()

	now := s.now()
	obs := attendance.Prepare(snap.Events, snap.Attendance, now)
	res = AttendanceResult{
		Trend:       s.attendanceParams.AnalyzeTrend(obs),
		Predictions: []attendance.Prediction{},
	}

	start, err := parseDay(req.StartDate, latest(obs, now))
	if err != nil {
		return res, err
	}

	f := attendance.NewForecaster(
		attendance.WithParams(s.attendanceParams),
		attendance.WithLogger(s.logger.Named(ComponentAttendance)),
	)
	m, err := f.TrainModel(ctx, obs)
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		metrics.RecordTraining(ComponentAttendance, metrics.OutcomeInsufficientData)
		return res, err
	case err != nil:
		metrics.RecordTraining(ComponentAttendance, metrics.OutcomeFitFailure)
		return res, err
	}
	metrics.RecordTraining(ComponentAttendance, metrics.OutcomeOK)
	metrics.UpdateTrainingStats(m.Samples(), m.Stats().Mean)

	periods := req.PeriodsAhead
	if periods <= 0 {
		periods = s.defaults.PeriodsAhead
	}
	biWeekly := s.defaults.BiWeekly
	if req.BiWeekly != nil {
		biWeekly = *req.BiWeekly
	}
	eventType := req.EventType
	if eventType == "" {
		eventType = model.EventTypeRegular
	}

	res.Trained = true
	res.Samples = m.Samples()
	res.Stats = m.Stats()
	res.Predictions = f.Forecast(ctx, start, periods, eventType, biWeekly)
	return res, nil
}

// latest returns the most recent observation date, or now without observations.
func latest(obs []attendance.Observation, now time.Time) time.Time {
	var out time.Time
	for _, o := range obs {
		if t, ok := model.ParseDate(o.Date); ok && t.After(out) {
			out = t
		}
	}
	if out.IsZero() {
		return now
	}
	return out
}

// GrowthRequest tunes a growth simulation. Nil head counts are taken from the
// snapshot: seekers without a group leader and members with one.
type GrowthRequest struct {
	CurrentSeekers *float64 `json:"currentSeekers,omitempty"`
	CurrentMembers *float64 `json:"currentMembers,omitempty"`
	WeeksAhead     int      `json:"weeksAhead,omitempty"`
}

// GrowthResult is the outcome of a growth simulation.
type GrowthResult struct {
	Model          growth.Model      `json:"model"`
	CurrentSeekers float64           `json:"currentSeekers"`
	CurrentMembers float64           `json:"currentMembers"`
	Snapshots      []growth.Snapshot `json:"snapshots"`
}

// ForecastGrowth learns conversion behavior from the snapshot and simulates
// small-group growth.
func (s *Service) ForecastGrowth(ctx context.Context, snap model.Snapshot, req GrowthRequest) (GrowthResult, error) {
	return s.forecastGrowth(ctx, snap.Normalize(), req)
}

func (s *Service) forecastGrowth(ctx context.Context, snap model.Snapshot, req GrowthRequest) (GrowthResult, error) {
	started := time.Now()

	m := s.growthParams.Analyze(snap.Members, snap.Attendance)

	res := GrowthResult{Model: m}
	if req.CurrentSeekers != nil {
		res.CurrentSeekers = *req.CurrentSeekers
	} else {
		for _, sk := range snap.Seekers() {
			if !sk.HasLeader() {
				res.CurrentSeekers++
			}
		}
	}
	if req.CurrentMembers != nil {
		res.CurrentMembers = *req.CurrentMembers
	} else {
		res.CurrentMembers = float64(len(snap.GroupMembers()))
	}

	weeks := req.WeeksAhead
	if weeks <= 0 {
		weeks = s.defaults.WeeksAhead
	}
	res.Snapshots = m.Forecast(res.CurrentSeekers, res.CurrentMembers, weeks)

	s.logger.Debug(ctx, "growth simulated",
		logger.Float64("rate", m.Rate),
		logger.Float64("avgWeeks", m.AvgWeeks),
		logger.Bool("coldStart", m.ColdStart))
	s.observe(ctx, ComponentGrowth, started, nil)
	return res, nil
}

// VolunteerRequest selects the date and optional ministry to predict for.
type VolunteerRequest struct {
	TargetDate string `json:"targetDate,omitempty"` // defaults to today
	Ministry   string `json:"ministry,omitempty"`
}

// VolunteerResult is the outcome of a volunteer availability prediction.
type VolunteerResult struct {
	TargetDate   string                           `json:"targetDate"`
	Summary      volunteer.Summary                `json:"summary"`
	Availability []volunteer.Availability         `json:"availability"`
	Ministries   []volunteer.MinistryAvailability `json:"ministries"`
}

// PredictVolunteers analyzes active volunteers and predicts who can serve on the
// target date.
func (s *Service) PredictVolunteers(ctx context.Context, snap model.Snapshot, req VolunteerRequest) (VolunteerResult, error) {
	return s.predictVolunteers(ctx, snap.Normalize(), req)
}

func (s *Service) predictVolunteers(ctx context.Context, snap model.Snapshot, req VolunteerRequest) (res VolunteerResult, err error) {
	started := time.Now()
	defer func() { s.observe(ctx, ComponentVolunteers, started, err) }()

	now := s.now()
	target, err := parseDay(req.TargetDate, now)
	if err != nil {
		return res, err
	}

	a := volunteer.Analyze(snap.Volunteers(), snap.Attendance, snap.Events, now)
	summary := a.Summary()
	metrics.UpdateVolunteerStats(summary.Total, len(summary.Ministries))

	return VolunteerResult{
		TargetDate:   target.Format(model.DateLayout),
		Summary:      summary,
		Availability: a.PredictAvailability(target, req.Ministry),
		Ministries:   a.MinistryAvailability(target),
	}, nil
}

// AnnualRequest sets the annual forecast horizon.
type AnnualRequest struct {
	YearsAhead int `json:"yearsAhead,omitempty"`
}

// AnnualResult is the outcome of an annual forecast. Fallback names why the
// forecast is a flat projection, empty when it is a fitted one.
type AnnualResult struct {
	Series   annual.Series       `json:"series"`
	Forecast []annual.YearTotals `json:"forecast"`
	Rows     []annual.Row        `json:"rows"`
	Fallback string              `json:"fallback,omitempty"`
}

// ForecastAnnual builds the yearly leader and member series and projects it.
// The returned error classifies a fallback; the result is complete either way.
func (s *Service) ForecastAnnual(ctx context.Context, snap model.Snapshot, req AnnualRequest) (AnnualResult, error) {
	return s.forecastAnnual(ctx, snap.Normalize(), req)
}

func (s *Service) forecastAnnual(ctx context.Context, snap model.Snapshot, req AnnualRequest) (AnnualResult, error) {
	started := time.Now()

	years := req.YearsAhead
	if years <= 0 {
		years = s.defaults.YearsAhead
	}

	series := annual.BuildSeries(snap.Members, snap.Attendance)
	metrics.UpdateAnnualSeriesYears(len(series))

	rows, err := series.Combined(years, s.now())
	res := AnnualResult{
		Series:   series,
		Forecast: yearTotals(rows[len(series):]),
		Rows:     rows,
		Fallback: forecast.KindName(err),
	}
	s.observe(ctx, ComponentAnnual, started, err)
	return res, err
}

func yearTotals(rows []annual.Row) []annual.YearTotals {
	out := make([]annual.YearTotals, len(rows))
	for i, r := range rows {
		out[i] = r.YearTotals
	}
	return out
}

// Compare builds the service comparison payload.
func (s *Service) Compare(ctx context.Context, snap model.Snapshot) (report.Comparison, error) {
	return s.compare(ctx, snap.Normalize()), nil
}

func (s *Service) compare(ctx context.Context, snap model.Snapshot) report.Comparison {
	started := time.Now()
	c := report.BuildComparison(snap.Events, snap.Attendance, snap.Members)
	s.observe(ctx, ComponentComparison, started, nil)
	return c
}
