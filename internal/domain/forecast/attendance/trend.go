package attendance

import (
	"slices"
	"time"

	"github.com/okian/shepherd/internal/domain/model"
)

// Trend classifies the direction of attendance history.
type Trend string

// Trend labels.
const (
	TrendGrowing          Trend = "growing"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// AnalyzeTrend classifies history with the default tunables.
func AnalyzeTrend(obs []Observation) Trend {
	return DefaultParams().AnalyzeTrend(obs)
}

// AnalyzeTrend compares the mean count of the older half of the history with the
// newer half. Records without a count are ignored. Records without a usable date
// sort first.
func (p Params) AnalyzeTrend(obs []Observation) Trend {
	type point struct {
		at    time.Time
		count int
	}

	points := make([]point, 0, len(obs))
	for _, o := range obs {
		if o.Count == nil {
			continue
		}
		at, _ := model.ParseDate(o.Date)
		points = append(points, point{at: at, count: *o.Count})
	}
	if len(points) < p.MinTrendRecords {
		return TrendInsufficientData
	}
	slices.SortStableFunc(points, func(a, b point) int { return a.at.Compare(b.at) })

	mid := len(points) / 2
	mean := func(ps []point) float64 {
		sum := 0
		for _, pt := range ps {
			sum += pt.count
		}
		return float64(sum) / float64(len(ps))
	}
	first, second := mean(points[:mid]), mean(points[mid:])

	if first == 0 {
		if second > 0 {
			return TrendGrowing
		}
		return TrendStable
	}

	change := (second - first) / first
	switch {
	case change > p.TrendThreshold:
		return TrendGrowing
	case change < -p.TrendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}
