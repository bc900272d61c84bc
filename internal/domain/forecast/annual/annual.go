// Package annual aggregates attendance into yearly small-group participation
// and projects it forward.
package annual

import (
	"math"
	"slices"
	"time"

	"github.com/okian/shepherd/internal/domain/forecast"
	"github.com/okian/shepherd/internal/domain/model"
	"github.com/okian/shepherd/internal/domain/regression"
)

const (
	minYears = 3
	degree   = 2
)

// YearTotals counts the leaders and group members active in a year.
type YearTotals struct {
	Year    int `json:"year"`
	Leaders int `json:"leaders"`
	Members int `json:"members"`
}

// Row is a YearTotals with the change from the previous row.
type Row struct {
	YearTotals
	LeadersInc int `json:"leadersInc"`
	MembersInc int `json:"membersInc"`
}

// Series is a run of YearTotals in ascending year order.
type Series []YearTotals

// BuildSeries counts, per calendar year (UTC) of check-in, the distinct members
// who attended and are tagged as leaders or assigned to a leader. Check-ins
// without a usable instant and unknown members are ignored.
func BuildSeries(members []model.Member, attendance []model.Attendance) Series {
	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	active := make(map[int]map[string]struct{})
	for _, a := range attendance {
		at, ok := a.At()
		if !ok {
			continue
		}
		y := at.UTC().Year()
		if active[y] == nil {
			active[y] = make(map[string]struct{})
		}
		active[y][a.MemberID] = struct{}{}
	}

	years := make([]int, 0, len(active))
	for y := range active {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make(Series, 0, len(years))
	for _, y := range years {
		row := YearTotals{Year: y}
		for id := range active[y] {
			m, ok := byID[id]
			if !ok {
				continue
			}
			if m.FinalTags.IsDgroupLeader {
				row.Leaders++
			}
			if m.HasLeader() {
				row.Members++
			}
		}
		out = append(out, row)
	}
	return out
}

// Increments returns the series with year-over-year changes. The first row's
// changes are zero.
func Increments(s Series) []Row {
	out := make([]Row, len(s))
	for i, t := range s {
		out[i] = Row{YearTotals: t}
		if i > 0 {
			out[i].LeadersInc = t.Leaders - s[i-1].Leaders
			out[i].MembersInc = t.Members - s[i-1].Members
		}
	}
	return out
}

// Forecast projects yearsAhead years. With fewer than three years, or when the
// fit fails, the last known totals are repeated and the error says why. An empty
// series projects zeros from now's year.
func (s Series) Forecast(yearsAhead int, now time.Time) ([]YearTotals, error) {
	const op = "annual.Forecast"

	if len(s) < minYears {
		return s.flat(yearsAhead, now), forecast.NewKind(op, forecast.ErrInsufficientData)
	}

	xs := make([]float64, len(s))
	leaders := make([]float64, len(s))
	members := make([]float64, len(s))
	for i, t := range s {
		xs[i] = float64(i)
		leaders[i] = float64(t.Leaders)
		members[i] = float64(t.Members)
	}

	lp, err := regression.FitPolynomial(xs, leaders, degree)
	if err != nil {
		return s.flat(yearsAhead, now), forecast.WrapKind(op, forecast.ErrFitFailure, err)
	}
	mp, err := regression.FitPolynomial(xs, members, degree)
	if err != nil {
		return s.flat(yearsAhead, now), forecast.WrapKind(op, forecast.ErrFitFailure, err)
	}

	last := s[len(s)-1]
	lastIndex := len(s) - 1
	out := make([]YearTotals, 0, max(yearsAhead, 0))
	for step := 1; step <= yearsAhead; step++ {
		x := float64(lastIndex + step)
		out = append(out, YearTotals{
			Year:    last.Year + step,
			Leaders: nonNegative(lp.Predict(x)),
			Members: nonNegative(mp.Predict(x)),
		})
	}
	return out, nil
}

func (s Series) flat(yearsAhead int, now time.Time) []YearTotals {
	last := YearTotals{Year: now.Year()}
	if len(s) > 0 {
		last = s[len(s)-1]
	}
	out := make([]YearTotals, 0, max(yearsAhead, 0))
	for i := 1; i <= yearsAhead; i++ {
		out = append(out, YearTotals{Year: last.Year + i, Leaders: last.Leaders, Members: last.Members})
	}
	return out
}

// Combined returns the historical increments followed by the forecast rows, each
// forecast increment relative to the row before it. The error is Forecast's; the
// rows are usable either way.
func (s Series) Combined(yearsAhead int, now time.Time) ([]Row, error) {
	out := Increments(s)
	next, err := s.Forecast(yearsAhead, now)

	for _, n := range next {
		row := Row{YearTotals: n}
		if len(out) > 0 {
			prev := out[len(out)-1]
			row.LeadersInc = n.Leaders - prev.Leaders
			row.MembersInc = n.Members - prev.Members
		}
		out = append(out, row)
	}
	return out, err
}

func nonNegative(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, int(math.Round(v)))
}
