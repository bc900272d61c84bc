// Package features derives the calendar and seasonal features used by the
// attendance model.
package features

import (
	"math"
	"time"

	"github.com/okian/shepherd/internal/domain/model"
)

// Composite weights. Training and prediction both go through Composite.
const (
	WeekWeight      = 0.3
	DayOfWeekWeight = 10.0
	MonthSinWeight  = 20.0
	SpecialWeight   = 15.0
)

// Vector is the feature set of a single date.
type Vector struct {
	DayOfWeek  int // 0 = Sunday
	WeekOfYear int // ISO week, 1..53
	Month      int // 0 = January
	IsWeekend  bool
	IsSpecial  bool
	MonthSin   float64
	MonthCos   float64
	WeekSin    float64
	WeekCos    float64
}

// Extract computes the feature vector of t for an event of the given type.
func Extract(t time.Time, eventType string) Vector {
	_, week := t.ISOWeek()
	month := int(t.Month()) - 1
	dow := int(t.Weekday())

	monthAngle := float64(month) / 12 * 2 * math.Pi
	weekAngle := float64(week) / 52 * 2 * math.Pi

	return Vector{
		DayOfWeek:  dow,
		WeekOfYear: week,
		Month:      month,
		IsWeekend:  dow == int(time.Sunday) || dow == int(time.Saturday),
		IsSpecial:  eventType == model.EventTypeSpecial,
		MonthSin:   math.Sin(monthAngle),
		MonthCos:   math.Cos(monthAngle),
		WeekSin:    math.Sin(weekAngle),
		WeekCos:    math.Cos(weekAngle),
	}
}

// Composite collapses v and a trend index into the scalar the regression is fitted on.
func Composite(v Vector, trendIndex int) float64 {
	return WeekWeight*float64(v.WeekOfYear) +
		DayOfWeekWeight*float64(v.DayOfWeek) +
		MonthSinWeight*v.MonthSin +
		SpecialWeight*b2f(v.IsSpecial) +
		float64(trendIndex)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
