package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/okian/shepherd/internal/adapters/http/client"
	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/config"
	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/spf13/cobra"
)

const outputFilePermission = 0o600

func newForecastCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Run an analysis over a snapshot file",
		Long: `Read a snapshot ({"events":[],"attendance":[],"members":[]}) and print the
requested analysis as JSON. With --url the snapshot is posted to a running API
instead of being analyzed locally.

Examples:
  # Full dashboard
  shepherd forecast --input branch.json

  # Next six weekly services
  shepherd forecast --input branch.json --section attendance --periods 6 --bi-weekly=false

  # Volunteer availability through a running server
  shepherd sample | shepherd forecast --input - --section volunteers --url http://localhost:9080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForecast(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("input", "", "snapshot file, - for stdin")
	f.String("section", "dashboard", "one of: "+strings.Join(client.Sections(), ", "))
	f.String("output", "", "output file path (default: stdout)")
	f.String("url", "", "base URL of a running shepherd API")
	f.Duration("timeout", 30*time.Second, "API request timeout")
	f.String("start", "", "attendance: first date to forecast from (default: latest service)")
	f.Int("periods", 0, "attendance: services to forecast (0=use config default)")
	f.String("event-type", "", "attendance: event type of the forecast services")
	f.Bool("bi-weekly", true, "attendance: services every two weeks")
	f.Int("weeks", 0, "growth: weeks to simulate (0=use config default)")
	f.String("target-date", "", "volunteers: date to predict availability for (default: today)")
	f.String("ministry", "", "volunteers: only this ministry")
	f.Int("years", 0, "annual: years to forecast (0=use config default)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runForecast(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	input, _ := f.GetString("input")
	section, _ := f.GetString("section")
	output, _ := f.GetString("output")
	url, _ := f.GetString("url")

	if !slices.Contains(client.Sections(), section) {
		return fmt.Errorf("%w: %q", client.ErrUnknownSection, section)
	}

	snap, err := readSnapshot(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	req := requestFromFlags(cmd)
	ctx := cmd.Context()
	log := logger.Get().Named("forecast")

	if url != "" {
		timeout, _ := f.GetDuration("timeout")
		raw, err := client.New(url, client.WithTimeout(timeout)).Run(ctx, section, snap, req.section(section))
		if err != nil {
			return err
		}
		return writeOutput(cmd, output, indent(raw))
	}

	res, err := runLocal(ctx, newService(cfg, log), section, snap, service.DashboardRequest(req))
	if err != nil && section == "annual" {
		log.Warn(ctx, "annual forecast fell back to a flat projection", logger.String("fallback", forecast.KindName(err)))
		err = nil
	}
	data, merr := json.MarshalIndent(res, "", "  ")
	if merr != nil {
		return fmt.Errorf("encode result: %w", merr)
	}
	if werr := writeOutput(cmd, output, data); werr != nil {
		return werr
	}
	return err
}

// runLocal runs one section in process.
func runLocal(ctx context.Context, svc *service.Service, section string, snap model.Snapshot, req service.DashboardRequest) (any, error) {
	switch section {
	case "attendance":
		return svc.ForecastAttendance(ctx, snap, req.Attendance)
	case "growth":
		return svc.ForecastGrowth(ctx, snap, req.Growth)
	case "volunteers":
		return svc.PredictVolunteers(ctx, snap, req.Volunteers)
	case "annual":
		return svc.ForecastAnnual(ctx, snap, req.Annual)
	case "comparison":
		return svc.Compare(ctx, snap)
	default:
		return svc.Dashboard(ctx, snap, req)
	}
}

type sectionRequest service.DashboardRequest

// section returns the options body for one endpoint.
func (r sectionRequest) section(name string) any {
	switch name {
	case "attendance":
		return r.Attendance
	case "growth":
		return r.Growth
	case "volunteers":
		return r.Volunteers
	case "annual":
		return r.Annual
	case "comparison":
		return nil
	default:
		return service.DashboardRequest(r)
	}
}

func requestFromFlags(cmd *cobra.Command) sectionRequest {
	f := cmd.Flags()
	var req sectionRequest
	req.Attendance.StartDate, _ = f.GetString("start")
	req.Attendance.PeriodsAhead, _ = f.GetInt("periods")
	req.Attendance.EventType, _ = f.GetString("event-type")
	if f.Changed("bi-weekly") {
		v, _ := f.GetBool("bi-weekly")
		req.Attendance.BiWeekly = &v
	}
	req.Growth.WeeksAhead, _ = f.GetInt("weeks")
	req.Volunteers.TargetDate, _ = f.GetString("target-date")
	req.Volunteers.Ministry, _ = f.GetString("ministry")
	req.Annual.YearsAhead, _ = f.GetInt("years")
	return req
}

func readSnapshot(stdin io.Reader, path string) (model.Snapshot, error) {
	var r io.Reader = stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
		}
		defer fh.Close()
		r = fh
	}

	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return snap, fmt.Errorf("decode snapshot %s: empty input", path)
		}
		return snap, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

func indent(raw json.RawMessage) []byte {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return out
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if !strings.HasSuffix(string(data), "\n") {
		data = append(data, '\n')
	}
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, outputFilePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
