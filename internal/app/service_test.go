package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{service.WithLogger(logger.Nop()), service.WithClock(fixedClock)}
	return service.New(append(base, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When it is started twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it reports started", func() {
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When no calls were made", func() {
			stats := svc.GetStats()

			Convey("Then every component counter is zero", func() {
				calls := stats["calls"].(map[string]int64)
				So(calls, ShouldContainKey, service.ComponentAttendance)
				So(calls[service.ComponentAnnual], ShouldEqual, 0)
				So(stats["periodsAhead"], ShouldEqual, 4)
			})
		})
	})

	Convey("Given custom defaults", t, func() {
		svc := newService(service.WithDefaults(service.Defaults{PeriodsAhead: 6, BiWeekly: false}))

		So(svc.GetStats()["periodsAhead"], ShouldEqual, 6)
		So(svc.GetStats()["biWeekly"], ShouldEqual, false)
	})
}
