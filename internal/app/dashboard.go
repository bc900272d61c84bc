package service

import (
	"context"
	"sync"

	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/domain/report"
	"github.com/okian/shepherd/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DashboardRequest carries the per-section requests.
type DashboardRequest struct {
	Attendance AttendanceRequest `json:"attendance"`
	Growth     GrowthRequest     `json:"growth"`
	Volunteers VolunteerRequest  `json:"volunteers"`
	Annual     AnnualRequest     `json:"annual"`
}

// Dashboard gathers every analysis over one snapshot. A section that failed is
// still present when it has a usable fallback, and its error is listed in Errors.
type Dashboard struct {
	Attendance *AttendanceResult  `json:"attendance,omitempty"`
	Growth     *GrowthResult      `json:"growth,omitempty"`
	Volunteers *VolunteerResult   `json:"volunteers,omitempty"`
	Annual     *AnnualResult      `json:"annual,omitempty"`
	Comparison *report.Comparison `json:"comparison,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

// Dashboard runs the independent analyses concurrently. Each one gets its own
// forecaster, so they share nothing but the read-only snapshot. Only context
// cancellation fails the whole call.
func (s *Service) Dashboard(ctx context.Context, snap model.Snapshot, req DashboardRequest) (Dashboard, error) {
	snap = snap.Normalize()

	var (
		mu  sync.Mutex
		out Dashboard
	)
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if out.Errors == nil {
			out.Errors = make(map[string]string)
		}
		out.Errors[section] = err.Error()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := s.forecastAttendance(gctx, snap, req.Attendance)
		if err != nil {
			fail(ComponentAttendance, err)
		}
		out.Attendance = &res
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := s.forecastGrowth(gctx, snap, req.Growth)
		if err != nil {
			fail(ComponentGrowth, err)
			return nil
		}
		out.Growth = &res
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := s.predictVolunteers(gctx, snap, req.Volunteers)
		if err != nil {
			fail(ComponentVolunteers, err)
			return nil
		}
		out.Volunteers = &res
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := s.forecastAnnual(gctx, snap, req.Annual)
		if err != nil {
			fail(ComponentAnnual, err)
		}
		out.Annual = &res
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		c := s.compare(gctx, snap)
		out.Comparison = &c
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	s.logger.Info(ctx, "dashboard built",
		logger.Int("events", len(snap.Events)),
		logger.Int("checkIns", len(snap.Attendance)),
		logger.Int("failedSections", len(out.Errors)))
	return out, nil
}
