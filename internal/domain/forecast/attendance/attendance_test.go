package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/forecast/attendance"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

// weekly returns one observation per week starting on Saturday 2024-01-06.
func weekly(counts ...int) []attendance.Observation {
	start := time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC)
	out := make([]attendance.Observation, len(counts))
	for i, c := range counts {
		out[i] = attendance.Observation{
			Date:      start.AddDate(0, 0, 7*i).Format(model.DateLayout),
			Count:     intp(c),
			EventType: "regular",
		}
	}
	return out
}

func lastDate(obs []attendance.Observation) time.Time {
	t, _ := model.ParseDate(obs[len(obs)-1].Date)
	return t
}

func TestTrain(t *testing.T) {
	Convey("Given six weekly services", t, func() {
		obs := weekly(40, 42, 38, 45, 50, 48)

		Convey("When the model is trained", func() {
			m, err := attendance.Train(obs)

			Convey("Then training succeeds with the count statistics", func() {
				So(err, ShouldBeNil)
				So(m.Samples(), ShouldEqual, 6)
				So(m.Stats().Min, ShouldEqual, 38)
				So(m.Stats().Max, ShouldEqual, 50)
				So(m.Stats().Mean, ShouldAlmostEqual, 263.0/6, 1e-9)
			})

			Convey("Then one period ahead stays in range with 0.80 confidence", func() {
				preds := m.Forecast(lastDate(obs), 1, "regular", true)

				So(preds, ShouldHaveLength, 1)
				So(preds[0].Count, ShouldBeBetweenOrEqual, 30, 60)
				So(preds[0].Confidence, ShouldEqual, 0.80)
				So(preds[0].WeekNumber, ShouldEqual, 1)
				So(preds[0].Date, ShouldEqual, "2024-02-24")
				So(preds[0].DateLabel, ShouldEqual, "Feb 24")
				So(preds[0].IsSpecial, ShouldBeFalse)
			})
		})

		Convey("When records are shuffled and padded with malformed rows", func() {
			shuffled := []attendance.Observation{obs[3], obs[0], obs[5], obs[1], obs[4], obs[2],
				{Date: "", Count: intp(99)},
				{Date: "2024-01-01", Count: nil},
				{Date: "not a date", Count: intp(1)},
				{Date: "2024-01-02", Count: intp(-4)},
			}
			a, errA := attendance.Train(obs)
			b, errB := attendance.Train(shuffled)

			Convey("Then the malformed rows are ignored and order does not matter", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(b.Samples(), ShouldEqual, 6)
				start := lastDate(obs)
				So(b.Forecast(start, 8, "regular", false), ShouldResemble, a.Forecast(start, 8, "regular", false))
			})
		})
	})

	Convey("Given too few usable records", t, func() {
		Convey("When training on nothing", func() {
			m, err := attendance.Train(nil)
			So(m, ShouldBeNil)
			So(errors.Is(err, forecast.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When training on four records", func() {
			_, err := attendance.Train(weekly(10, 11, 12, 13))
			So(errors.Is(err, forecast.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When filtering leaves four records", func() {
			obs := append(weekly(10, 11, 12, 13), attendance.Observation{Date: "2024-05-01"})
			_, err := attendance.Train(obs)
			So(errors.Is(err, forecast.ErrInsufficientData), ShouldBeTrue)
		})
	})

	Convey("Given a degree the data cannot support", t, func() {
		p := attendance.DefaultParams()
		p.Degree = 5

		Convey("When training", func() {
			_, err := p.Train(weekly(10, 11, 12, 13, 14))

			Convey("Then it is a fit failure", func() {
				So(errors.Is(err, forecast.ErrFitFailure), ShouldBeTrue)
				So(forecast.KindName(err), ShouldEqual, "fit_failure")
			})
		})
	})
}

func TestForecast(t *testing.T) {
	Convey("Given a trained model", t, func() {
		obs := weekly(40, 42, 38, 45, 50, 48, 52, 47, 55, 51)
		m, err := attendance.Train(obs)
		So(err, ShouldBeNil)
		start := lastDate(obs)

		Convey("When forecasting far beyond the history", func() {
			preds := m.Forecast(start, 1000, "regular", true)

			Convey("Then every count stays inside the clamp bounds", func() {
				So(preds, ShouldHaveLength, 1000)
				lo, hi := 0.8*m.Stats().Min, 1.2*m.Stats().Max
				for _, p := range preds {
					So(float64(p.Count), ShouldBeBetweenOrEqual, lo, hi)
				}
			})

			Convey("Then confidence never increases and stops at the floor", func() {
				for i := 1; i < len(preds); i++ {
					So(preds[i].Confidence, ShouldBeLessThanOrEqualTo, preds[i-1].Confidence)
				}
				So(preds[len(preds)-1].Confidence, ShouldEqual, 0.5)
			})
		})

		Convey("When forecasting the same inputs twice", func() {
			again, err := attendance.Train(obs)
			So(err, ShouldBeNil)

			Convey("Then the output is identical", func() {
				So(again.Forecast(start, 12, "special", true), ShouldResemble, m.Forecast(start, 12, "special", true))
			})
		})

		Convey("When forecasting weekly instead of bi-weekly", func() {
			preds := m.Forecast(start, 2, "special", false)

			Convey("Then dates advance one week per period", func() {
				So(preds[0].Date, ShouldEqual, "2024-03-16")
				So(preds[1].Date, ShouldEqual, "2024-03-23")
				So(preds[0].IsSpecial, ShouldBeTrue)
				So(preds[0].Confidence, ShouldEqual, 0.65)
			})
		})

		Convey("When no periods are requested", func() {
			So(m.Forecast(start, 0, "regular", true), ShouldBeEmpty)
		})
	})

	Convey("Given no model", t, func() {
		preds, err := attendance.Forecast(nil, time.Now(), 4, "regular", true)

		So(preds, ShouldNotBeNil)
		So(preds, ShouldBeEmpty)
		So(errors.Is(err, forecast.ErrPredictBeforeTrain), ShouldBeTrue)
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given the default confidence curve", t, func() {
		So(attendance.Confidence(1, "regular"), ShouldEqual, 0.80)
		So(attendance.Confidence(2, "regular"), ShouldEqual, 0.75)
		So(attendance.Confidence(1, "special"), ShouldEqual, 0.65)
		So(attendance.Confidence(0, "service"), ShouldEqual, 0.85)

		Convey("Then it is monotone and floored for both event types", func() {
			for _, kind := range []string{"regular", "special"} {
				prev := attendance.Confidence(1, kind)
				for p := 2; p <= 40; p++ {
					c := attendance.Confidence(p, kind)
					So(c, ShouldBeLessThanOrEqualTo, prev)
					So(c, ShouldBeGreaterThanOrEqualTo, 0.5)
					prev = c
				}
				So(prev, ShouldEqual, 0.5)
			}
		})
	})
}

func TestAnalyzeTrend(t *testing.T) {
	Convey("Given histories with different directions", t, func() {
		Convey("When the second half is 25% higher", func() {
			So(attendance.AnalyzeTrend(weekly(18, 22, 24, 26)), ShouldEqual, attendance.TrendGrowing)
		})

		Convey("When the second half is much lower", func() {
			So(attendance.AnalyzeTrend(weekly(50, 50, 30, 30)), ShouldEqual, attendance.TrendDeclining)
		})

		Convey("When the halves are within ten percent", func() {
			So(attendance.AnalyzeTrend(weekly(20, 20, 21, 21)), ShouldEqual, attendance.TrendStable)
		})

		Convey("When the records arrive out of order", func() {
			obs := weekly(18, 22, 24, 26)
			obs[0], obs[3] = obs[3], obs[0]
			So(attendance.AnalyzeTrend(obs), ShouldEqual, attendance.TrendGrowing)
		})

		Convey("When the first half averages zero", func() {
			So(attendance.AnalyzeTrend(weekly(0, 0, 3, 4)), ShouldEqual, attendance.TrendGrowing)
			So(attendance.AnalyzeTrend(weekly(0, 0, 0, 0)), ShouldEqual, attendance.TrendStable)
		})

		Convey("When fewer than four records have counts", func() {
			obs := append(weekly(1, 2, 3), attendance.Observation{Date: "2024-06-01"})
			So(attendance.AnalyzeTrend(obs), ShouldEqual, attendance.TrendInsufficientData)
		})
	})
}

func TestForecaster(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh forecaster", t, func() {
		f := attendance.NewForecaster(attendance.WithLogger(logger.Nop()))
		start := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

		Convey("When forecasting before training", func() {
			Convey("Then the result is empty", func() {
				So(f.Forecast(ctx, start, 4, "regular", true), ShouldBeEmpty)
				So(f.Model(), ShouldBeNil)
			})
		})

		Convey("When training succeeds and a retrain fails", func() {
			So(f.Train(ctx, weekly(40, 42, 38, 45, 50, 48)), ShouldBeTrue)
			trained := f.Model()
			before := f.Forecast(ctx, start, 4, "regular", true)

			So(f.Train(ctx, weekly(1, 2, 3, 4)), ShouldBeFalse)
			So(f.Train(ctx, nil), ShouldBeFalse)

			Convey("Then the earlier model is still used", func() {
				So(f.Model(), ShouldPointTo, trained)
				So(f.Forecast(ctx, start, 4, "regular", true), ShouldResemble, before)
			})
		})

		Convey("When tunables are overridden", func() {
			p := attendance.DefaultParams()
			p.MinRecords = 8
			g := attendance.NewForecaster(attendance.WithParams(p), attendance.WithLogger(logger.Nop()))

			Convey("Then the minimum follows them", func() {
				_, err := g.TrainModel(ctx, weekly(40, 42, 38, 45, 50, 48))
				So(errors.Is(err, forecast.ErrInsufficientData), ShouldBeTrue)
			})
		})
	})
}

func TestParamsValidate(t *testing.T) {
	Convey("Given tunables", t, func() {
		So(attendance.DefaultParams().Validate(), ShouldBeNil)

		p := attendance.DefaultParams()
		p.ClampLow = 1.5
		So(p.Validate(), ShouldNotBeNil)

		p = attendance.DefaultParams()
		p.Degree = 0
		So(p.Validate(), ShouldNotBeNil)

		p = attendance.DefaultParams()
		p.SpecialConfidence = 1.2
		So(p.Validate(), ShouldNotBeNil)
	})
}

func TestPrepare(t *testing.T) {
	Convey("Given events and check-ins", t, func() {
		now := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
		events := []model.Event{
			{ID: "e1", Date: "2024-03-02", EventType: "service", Name: "Elevate"},
			{ID: "e2", Date: "2024-03-16", Name: "Prayer night"},
			{ID: "e3", Date: "2024-03-30", EventType: "special"},
			{ID: "e4", Date: "2024-04-13", EventType: "service"},
			{ID: "e5", Date: "bad"},
		}
		rows := []model.Attendance{
			{MemberID: "a", EventID: "e1"},
			{MemberID: "b", EventID: "e1"},
			{MemberID: "a", EventID: "e2"},
			{MemberID: "a", EventID: "e4"},
			{MemberID: "a", EventID: "e5"},
		}

		Convey("When they are prepared", func() {
			obs := attendance.Prepare(events, rows, now)

			Convey("Then only past events with check-ins remain", func() {
				So(obs, ShouldHaveLength, 2)
				So(obs[0].Date, ShouldEqual, "2024-03-02")
				So(*obs[0].Count, ShouldEqual, 2)
				So(obs[0].EventType, ShouldEqual, "service")
				So(obs[0].Name, ShouldEqual, "Elevate")
				So(*obs[1].Count, ShouldEqual, 1)
				So(obs[1].EventType, ShouldEqual, model.EventTypeRegular)
			})

			Convey("Then counts are independent values", func() {
				*obs[0].Count = 100
				So(*obs[1].Count, ShouldEqual, 1)
			})
		})
	})
}
