package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/shepherd/internal/adapters/http/api"
	"github.com/okian/shepherd/internal/adapters/http/client"
	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/sampledata"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func newServer() *httptest.Server {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithClock(func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }),
	)
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestClient(t *testing.T) {
	convey.Convey("Given a running API", t, func() {
		srv := newServer()
		defer srv.Close()
		c := client.New(srv.URL+"/", client.WithTimeout(5*time.Second))
		ctx := context.Background()

		convey.Convey("Then the health check passes", func() {
			convey.So(c.Health(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When a forecast is requested with options", func() {
			snap := sampledata.Generate(ctx, sampledata.DefaultConfig())
			raw, err := c.Run(ctx, "attendance", snap, service.AttendanceRequest{PeriodsAhead: 2})

			convey.Convey("Then the result decodes", func() {
				convey.So(err, convey.ShouldBeNil)
				var res service.AttendanceResult
				convey.So(json.Unmarshal(raw, &res), convey.ShouldBeNil)
				convey.So(res.Predictions, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When the analysis fails", func() {
			snap := model.Snapshot{Events: []model.Event{{ID: "e1", Date: "2024-01-06"}}}
			_, err := c.Run(ctx, "attendance", snap, nil)

			convey.Convey("Then the API error is returned with its partial result", func() {
				var apiErr *client.APIError
				convey.So(errors.As(err, &apiErr), convey.ShouldBeTrue)
				convey.So(apiErr.Status, convey.ShouldEqual, http.StatusUnprocessableEntity)
				convey.So(apiErr.Code, convey.ShouldEqual, "insufficient_data")
				convey.So(string(apiErr.Result), convey.ShouldContainSubstring, "insufficient_data")
			})
		})

		convey.Convey("When the section is unknown", func() {
			_, err := c.Run(ctx, "weather", model.Snapshot{}, nil)

			convey.Convey("Then it fails before calling the API", func() {
				convey.So(errors.Is(err, client.ErrUnknownSection), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given an unreachable API", t, func() {
		srv := newServer()
		srv.Close()

		convey.Convey("Then the health check fails", func() {
			convey.So(client.New(srv.URL).Health(context.Background()), convey.ShouldNotBeNil)
		})
	})
}
