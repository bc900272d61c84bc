package service_test

import (
	"context"
	"testing"

	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/sampledata"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDashboard(t *testing.T) {
	Convey("Given generated branch history", t, func() {
		ctx := context.Background()
		svc := newService()
		snap := sampledata.Generate(ctx, sampledata.DefaultConfig())

		Convey("When the dashboard is built", func() {
			d, err := svc.Dashboard(ctx, snap, service.DashboardRequest{})

			Convey("Then every section is present", func() {
				So(err, ShouldBeNil)
				So(d.Errors, ShouldBeEmpty)
				So(d.Attendance, ShouldNotBeNil)
				So(d.Attendance.Trained, ShouldBeTrue)
				So(d.Attendance.Predictions, ShouldHaveLength, 4)
				So(d.Growth, ShouldNotBeNil)
				So(d.Volunteers, ShouldNotBeNil)
				So(d.Annual, ShouldNotBeNil)
				So(d.Comparison, ShouldNotBeNil)
				So(d.Comparison.Current, ShouldNotBeNil)
			})

			Convey("Then it matches the individual operations", func() {
				single, _ := svc.ForecastAttendance(ctx, snap, service.AttendanceRequest{})
				So(*d.Attendance, ShouldResemble, single)
			})
		})
	})

	Convey("Given a request with an unparseable target date", t, func() {
		ctx := context.Background()
		d, err := newService().Dashboard(ctx, sampledata.Generate(ctx, sampledata.Config{Members: 1, Years: 1}).Normalize(), service.DashboardRequest{
			Volunteers: service.VolunteerRequest{TargetDate: "not a date"},
		})

		Convey("Then failures are reported per section", func() {
			So(err, ShouldBeNil)
			So(d.Errors, ShouldContainKey, service.ComponentVolunteers)
			So(d.Volunteers, ShouldBeNil)
			So(d.Growth, ShouldNotBeNil)
			So(d.Comparison, ShouldNotBeNil)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newService().Dashboard(ctx, sampledata.Generate(context.Background(), sampledata.Config{Members: 3, Years: 1}), service.DashboardRequest{})

		Convey("Then the dashboard fails", func() {
			So(err, ShouldEqual, context.Canceled)
		})
	})
}
