package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("forecast"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered under the custom names", func() {
				So(manager, ShouldNotBeNil)
				manager.trainings.WithLabelValues("attendance", OutcomeOK).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_forecast_trainings_total")
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "shepherd")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording training outcomes", func() {
			before := testutil.ToFloat64(globalManager.trainings.WithLabelValues("attendance", OutcomeFitFailure))
			RecordTraining("attendance", OutcomeFitFailure)
			RecordTraining("attendance", OutcomeFitFailure)

			Convey("Then the labelled counter advances", func() {
				after := testutil.ToFloat64(globalManager.trainings.WithLabelValues("attendance", OutcomeFitFailure))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateTrainingStats(12, 44.5)
			UpdateVolunteerStats(30, 4)
			UpdateAnnualSeriesYears(3)

			Convey("Then the last value wins", func() {
				So(testutil.ToFloat64(globalManager.trainingSamples), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.trainingMean), ShouldEqual, 44.5)
				So(testutil.ToFloat64(globalManager.volunteerCount), ShouldEqual, 30)
				So(testutil.ToFloat64(globalManager.ministryCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.annualYearsSeries), ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordForecast("growth")
				RecordForecastError("annual", "insufficient_data")
				RecordAnalysisLatency("volunteer", 3.2)
				RecordHTTPRequest("/v1/forecast/annual", "POST", "200")
				RecordHTTPRequestDuration("/v1/forecast/annual", "POST", "200", 4)
				RecordRateLimited("/v1/forecast/annual")
			}, ShouldNotPanic)

			Convey("Then the registry exposes them", func() {
				So(GetRegistry(), ShouldNotBeNil)
				count, err := testutil.GatherAndCount(GetRegistry(), "shepherd_analytics_http_rate_limited_total")
				So(err, ShouldBeNil)
				So(count, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
