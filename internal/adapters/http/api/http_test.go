package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/shepherd/internal/adapters/http/api"
	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/sampledata"
	"github.com/okian/shepherd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newMux(opts ...api.Option) *http.ServeMux {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithClock(func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }),
	)
	mux := http.NewServeMux()
	api.NewServer(svc, svc, append([]api.Option{api.WithLogger(logger.Nop())}, opts...)...).Register(context.Background(), mux)
	return mux
}

func body(snap model.Snapshot, options any) *bytes.Reader {
	raw, err := json.Marshal(map[string]any{
		"events":     snap.Events,
		"attendance": snap.Attendance,
		"members":    snap.Members,
		"options":    options,
	})
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(raw)
}

func serve(mux *http.ServeMux, method, path string, b *bytes.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if b == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, b)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func tiny() model.Snapshot {
	return model.Snapshot{
		Events: []model.Event{{ID: "e1", Date: "2024-03-02", EventType: model.EventTypeService}},
		Attendance: []model.Attendance{
			{MemberID: "m1", EventID: "e1", Date: "2024-03-02"},
		},
		Members: []model.Member{{ID: "m1", FirstName: "Ana", FinalTags: model.FinalTags{IsDgroupLeader: true}}},
	}
}

func TestServer_Probes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux()

		Convey("Then /healthz reports ok as JSON", func() {
			w := serve(mux, http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			var got map[string]any
			So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
			So(got["status"], ShouldEqual, "ok")
		})

		Convey("Then /stats exposes the service counters", func() {
			w := serve(mux, http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			var got map[string]any
			So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
			So(got, ShouldContainKey, "calls")
			So(got, ShouldContainKey, "errors")
		})

		Convey("Then /metrics serves the analytics registry", func() {
			serve(mux, http.MethodPost, "/v1/reports/comparison", body(tiny(), nil))
			w := serve(mux, http.MethodGet, "/metrics", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "shepherd_analytics_http_requests_total")
		})

		Convey("Then analytics endpoints reject GET", func() {
			w := serve(mux, http.MethodGet, "/v1/forecast/attendance", nil)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Forecasts(t *testing.T) {
	Convey("Given a server and generated branch history", t, func() {
		mux := newMux()
		snap := sampledata.Generate(context.Background(), sampledata.DefaultConfig())

		Convey("When attendance is forecast", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/attendance", body(snap, map[string]any{"periodsAhead": 3}))

			Convey("Then the predictions are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got service.AttendanceResult
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Trained, ShouldBeTrue)
				So(got.Predictions, ShouldHaveLength, 3)
			})
		})

		Convey("When growth is forecast", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/growth", body(snap, map[string]any{"weeksAhead": 8}))

			Convey("Then one snapshot per interval is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got service.GrowthResult
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Snapshots, ShouldHaveLength, 2)
			})
		})

		Convey("When volunteers are predicted", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/volunteers", body(snap, map[string]any{"targetDate": "2025-01-04"}))

			Convey("Then availability is returned for the target date", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got service.VolunteerResult
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.TargetDate, ShouldEqual, "2025-01-04")
				So(got.Summary.Total, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the annual forecast is requested", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/annual", body(snap, map[string]any{"yearsAhead": 2}))

			Convey("Then historical and forecast rows are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got service.AnnualResult
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Forecast, ShouldHaveLength, 2)
				So(len(got.Rows), ShouldEqual, len(got.Series)+2)
			})
		})

		Convey("When the comparison is requested", func() {
			w := serve(mux, http.MethodPost, "/v1/reports/comparison", body(snap, nil))

			Convey("Then the newest service is described", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"current"`)
			})
		})

		Convey("When the dashboard is requested", func() {
			w := serve(mux, http.MethodPost, "/v1/reports/dashboard", body(snap, nil))

			Convey("Then every section is present", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]json.RawMessage
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				for _, k := range []string{"attendance", "growth", "volunteers", "annual", "comparison"} {
					So(got, ShouldContainKey, k)
				}
			})
		})
	})
}

func TestServer_Errors(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux()

		Convey("When attendance history is too short", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/attendance", body(tiny(), nil))

			Convey("Then it answers 422 with the partial result", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var got struct {
					Code   string                   `json:"code"`
					Result service.AttendanceResult `json:"result"`
				}
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Code, ShouldEqual, "insufficient_data")
				So(got.Result.Trained, ShouldBeFalse)
				So(string(got.Result.Trend), ShouldEqual, "insufficient_data")
			})
		})

		Convey("When the annual series has a single year", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/annual", body(tiny(), nil))

			Convey("Then it answers 200 with a flat fallback", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got service.AnnualResult
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Fallback, ShouldEqual, "insufficient_data")
				So(got.Forecast, ShouldHaveLength, 1)
			})
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/growth", bytes.NewReader([]byte("{")))

			Convey("Then it answers 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When the body is empty", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/growth", bytes.NewReader(nil))

			Convey("Then it answers 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a date option cannot be parsed", func() {
			w := serve(mux, http.MethodPost, "/v1/forecast/volunteers", body(tiny(), map[string]any{"targetDate": "someday"}))

			Convey("Then it answers 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "someday")
			})
		})
	})
}

func TestServer_Limits(t *testing.T) {
	Convey("Given a server with a small body limit", t, func() {
		mux := newMux(api.WithMaxBodyBytes(64))

		Convey("When the body exceeds it", func() {
			w := serve(mux, http.MethodPost, "/v1/reports/comparison", bytes.NewReader([]byte(`{"events":[`+strings.Repeat(`{"id":"e"},`, 20)+`{}]}`)))

			Convey("Then it answers 413", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})

	Convey("Given a server allowing a single request", t, func() {
		mux := newMux(api.WithRateLimit(0.001, 1))

		Convey("When two requests arrive back to back", func() {
			first := serve(mux, http.MethodPost, "/v1/reports/comparison", body(tiny(), nil))
			second := serve(mux, http.MethodPost, "/v1/reports/comparison", body(tiny(), nil))

			Convey("Then the second is rejected with 429", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(second.Header().Get("Retry-After"), ShouldEqual, "1")
			})
		})

		Convey("Then probes are not limited", func() {
			serve(mux, http.MethodPost, "/v1/reports/comparison", body(tiny(), nil))
			w := serve(mux, http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}
