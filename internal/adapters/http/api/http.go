// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/domain/report"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/okian/shepherd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Every call receives the full record
// snapshot of the request; nothing is kept between calls.
type Dependencies interface {
	ForecastAttendance(ctx context.Context, snap model.Snapshot, req service.AttendanceRequest) (service.AttendanceResult, error)
	ForecastGrowth(ctx context.Context, snap model.Snapshot, req service.GrowthRequest) (service.GrowthResult, error)
	PredictVolunteers(ctx context.Context, snap model.Snapshot, req service.VolunteerRequest) (service.VolunteerResult, error)
	ForecastAnnual(ctx context.Context, snap model.Snapshot, req service.AnnualRequest) (service.AnnualResult, error)
	Compare(ctx context.Context, snap model.Snapshot) (report.Comparison, error)
	Dashboard(ctx context.Context, snap model.Snapshot, req service.DashboardRequest) (service.Dashboard, error)
}

// Request is the body of every analytics endpoint: the branch records plus the
// operation's options.
type Request[T any] struct {
	model.Snapshot
	Options T `json:"options"`
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	maxBodyBytes int64
	limiter      *rate.Limiter
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		maxBodyBytes:  defaultMaxBodyBytes,
		limiter:       rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	s.post(mux, "/v1/forecast/attendance", "forecast_attendance", handle(s, s.deps.ForecastAttendance))
	s.post(mux, "/v1/forecast/growth", "forecast_growth", handle(s, s.deps.ForecastGrowth))
	s.post(mux, "/v1/forecast/volunteers", "forecast_volunteers", handle(s, s.deps.PredictVolunteers))
	s.post(mux, "/v1/forecast/annual", "forecast_annual", s.handleAnnual)
	s.post(mux, "/v1/reports/comparison", "reports_comparison", handle(s, s.compare))
	s.post(mux, "/v1/reports/dashboard", "reports_dashboard", handle(s, s.deps.Dashboard))

	s.logger.Debug(ctx, "routes registered")
}

func (s *Server) post(mux *http.ServeMux, path, endpoint string, h http.HandlerFunc) {
	mux.HandleFunc("POST "+path, MetricsMiddleware(s.rateLimit(s.limitBody(h), endpoint), endpoint))
}

// compare adapts Compare to the options-taking handler shape.
func (s *Server) compare(ctx context.Context, snap model.Snapshot, _ struct{}) (report.Comparison, error) {
	return s.deps.Compare(ctx, snap)
}

// handle decodes a Request[T], runs the operation and writes its result. A
// failed analysis still returns its partial result inside the error body.
func handle[T, R any](s *Server, run func(context.Context, model.Snapshot, T) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode[T](r)
		if err != nil {
			s.writeError(r.Context(), w, err, nil)
			return
		}
		res, err := run(r.Context(), req.Snapshot, req.Options)
		if err != nil {
			s.writeError(r.Context(), w, err, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleAnnual always answers 200: a failed fit is reported through the
// result's fallback field next to the flat projection.
func (s *Server) handleAnnual(w http.ResponseWriter, r *http.Request) {
	req, err := decode[service.AnnualRequest](r)
	if err != nil {
		s.writeError(r.Context(), w, err, nil)
		return
	}
	res, err := s.deps.ForecastAnnual(r.Context(), req.Snapshot, req.Options)
	if err != nil && res.Rows == nil {
		s.writeError(r.Context(), w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decode[T any](r *http.Request) (Request[T], error) {
	const op = "api.decode"
	var req Request[T]
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return req, fmt.Errorf("%s: %w", op, ErrBodyTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return req, fmt.Errorf("%s: %w: empty body", op, ErrBadRequest)
		}
		return req, fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error, partial any) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error(), Result: partial})
}
