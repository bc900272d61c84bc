// Package volunteer mines each volunteer's attendance regularity and preferred
// weekday and predicts who is likely to serve on a given date.
package volunteer

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/okian/shepherd/internal/domain/model"
)

// Tier is a reliability bucket.
type Tier string

// Reliability tiers.
const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const (
	highRate   = 0.8
	mediumRate = 0.5

	preferredDayBoost = 1.2
	maxProbability    = 0.95
	likelyThreshold   = 0.6

	topReliable = 5
)

// Reliability maps an attendance rate to exactly one tier.
func Reliability(rate float64) Tier {
	switch {
	case rate >= highRate:
		return TierHigh
	case rate >= mediumRate:
		return TierMedium
	default:
		return TierLow
	}
}

// Pattern is the derived attendance behavior of one volunteer.
type Pattern struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	AttendanceRate float64      `json:"attendanceRate"`
	PreferredDay   time.Weekday `json:"preferredDay"`
	TotalServices  int          `json:"totalServices"`
	Reliability    Tier         `json:"reliability"`
	Ministries     []string     `json:"ministries"`
}

func (p Pattern) serves(ministry string) bool {
	return slices.Contains(p.Ministries, ministry)
}

// VolunteerSummary is a volunteer as listed under a ministry.
type VolunteerSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rate        float64 `json:"rate"`
	Reliability Tier    `json:"reliability"`
}

// MinistryStats aggregates the volunteers of one ministry.
type MinistryStats struct {
	TotalVolunteers   int                `json:"totalVolunteers"`
	HighReliability   int                `json:"highReliability"`
	AvgAttendanceRate float64            `json:"avgAttendanceRate"`
	Volunteers        []VolunteerSummary `json:"volunteers"`
}

// Analysis holds the patterns of one analysis run. It is not modified after
// Analyze returns.
type Analysis struct {
	patterns   []Pattern
	ministries map[string]MinistryStats
	names      []string // ministry names, sorted
}

// Analyze derives a pattern for every volunteer. A volunteer's rate is their
// check-ins at known events over the number of events dated on or before now.
// Check-ins at unknown events are dropped. Repeated volunteer IDs are analyzed
// once.
func Analyze(volunteers []model.Member, attendance []model.Attendance, events []model.Event, now time.Time) *Analysis {
	eventDays := make(map[string]time.Weekday, len(events))
	past := 0
	for _, e := range events {
		at, ok := e.Time()
		if !ok {
			continue
		}
		eventDays[e.ID] = at.Weekday()
		if !at.After(now) {
			past++
		}
	}

	byMember := make(map[string][]time.Weekday)
	for _, a := range attendance {
		if day, ok := eventDays[a.EventID]; ok {
			byMember[a.MemberID] = append(byMember[a.MemberID], day)
		}
	}

	seen := make(map[string]struct{}, len(volunteers))
	patterns := make([]Pattern, 0, len(volunteers))
	for _, v := range volunteers {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}

		days := byMember[v.ID]
		rate := float64(len(days)) / float64(max(past, 1))
		patterns = append(patterns, Pattern{
			ID:             v.ID,
			Name:           strings.TrimSpace(v.FirstName + " " + v.LastName),
			AttendanceRate: rate,
			PreferredDay:   preferredDay(days),
			TotalServices:  len(days),
			Reliability:    Reliability(rate),
			Ministries:     uniqueMinistries(v.FinalTags.VolunteerMinistry),
		})
	}

	ministries := foldMinistries(patterns)
	names := make([]string, 0, len(ministries))
	for name := range ministries {
		names = append(names, name)
	}
	slices.Sort(names)

	return &Analysis{patterns: patterns, ministries: ministries, names: names}
}

// preferredDay returns the most frequent weekday. Ties go to the later weekday
// and an empty history prefers Sunday.
func preferredDay(days []time.Weekday) time.Weekday {
	var freq [7]int
	for _, d := range days {
		freq[d]++
	}
	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if freq[d] > 0 && freq[d] >= freq[best] {
			best = d
		}
	}
	return best
}

func uniqueMinistries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = strings.TrimSpace(m)
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func foldMinistries(patterns []Pattern) map[string]MinistryStats {
	out := make(map[string]MinistryStats)
	for _, p := range patterns {
		for _, name := range p.Ministries {
			s := out[name]
			s.TotalVolunteers++
			if p.Reliability == TierHigh {
				s.HighReliability++
			}
			s.Volunteers = append(s.Volunteers, VolunteerSummary{
				ID:          p.ID,
				Name:        p.Name,
				Rate:        p.AttendanceRate,
				Reliability: p.Reliability,
			})
			out[name] = s
		}
	}
	for name, s := range out {
		sum := 0.0
		for _, v := range s.Volunteers {
			sum += v.Rate
		}
		s.AvgAttendanceRate = sum / float64(len(s.Volunteers))
		out[name] = s
	}
	return out
}

// Patterns returns the per-volunteer patterns in input order.
func (a *Analysis) Patterns() []Pattern {
	return slices.Clone(a.patterns)
}

// Ministry returns the stats of one ministry.
func (a *Analysis) Ministry(name string) (MinistryStats, bool) {
	s, ok := a.ministries[name]
	s.Volunteers = slices.Clone(s.Volunteers)
	return s, ok
}

// MinistryNames returns the known ministries sorted by name.
func (a *Analysis) MinistryNames() []string {
	return slices.Clone(a.names)
}

// Availability is the predicted availability of one volunteer.
type Availability struct {
	VolunteerID       string   `json:"volunteerId"`
	Name              string   `json:"name"`
	Probability       float64  `json:"probability"`
	Reliability       Tier     `json:"reliability"`
	IsLikelyAvailable bool     `json:"isLikelyAvailable"`
	Ministries        []string `json:"ministries"`
}

// PredictAvailability scores every volunteer serving ministry for target, most
// likely first. An empty ministry matches everyone.
func (a *Analysis) PredictAvailability(target time.Time, ministry string) []Availability {
	day := target.Weekday()
	out := make([]Availability, 0, len(a.patterns))
	for _, p := range a.patterns {
		if ministry != "" && !p.serves(ministry) {
			continue
		}
		boost := 1.0
		if p.PreferredDay == day {
			boost = preferredDayBoost
		}
		prob := min(maxProbability, p.AttendanceRate*boost)
		out = append(out, Availability{
			VolunteerID:       p.ID,
			Name:              p.Name,
			Probability:       prob,
			Reliability:       p.Reliability,
			IsLikelyAvailable: prob > likelyThreshold,
			Ministries:        p.Ministries,
		})
	}
	slices.SortStableFunc(out, func(x, y Availability) int { return cmp.Compare(y.Probability, x.Probability) })
	return out
}

// MinistryAvailability is the predicted staffing of one ministry.
type MinistryAvailability struct {
	Ministry         string         `json:"ministry"`
	TotalVolunteers  int            `json:"totalVolunteers"`
	LikelyAvailable  int            `json:"likelyAvailable"`
	AvailabilityRate float64        `json:"availabilityRate"` // percent
	Predictions      []Availability `json:"predictions"`
}

// MinistryAvailability predicts staffing for every known ministry on target.
func (a *Analysis) MinistryAvailability(target time.Time) []MinistryAvailability {
	out := make([]MinistryAvailability, 0, len(a.names))
	for _, name := range a.names {
		stats := a.ministries[name]
		preds := a.PredictAvailability(target, name)
		likely := 0
		for _, p := range preds {
			if p.IsLikelyAvailable {
				likely++
			}
		}
		out = append(out, MinistryAvailability{
			Ministry:         name,
			TotalVolunteers:  stats.TotalVolunteers,
			LikelyAvailable:  likely,
			AvailabilityRate: float64(likely) / float64(stats.TotalVolunteers) * 100,
			Predictions:      preds,
		})
	}
	return out
}

// NamedMinistryStats is MinistryStats with its ministry name.
type NamedMinistryStats struct {
	Name string `json:"name"`
	MinistryStats
}

// Summary is the roll-up of an analysis.
type Summary struct {
	Total                 int                  `json:"total"`
	HighReliability       int                  `json:"highReliability"`
	AverageAttendanceRate float64              `json:"averageAttendanceRate"`
	MostReliable          []Pattern            `json:"mostReliable"`
	Ministries            []NamedMinistryStats `json:"ministries"`
}

// Summary rolls up the analysis. The mean rate of an empty analysis is 0.
func (a *Analysis) Summary() Summary {
	s := Summary{
		Total:      len(a.patterns),
		Ministries: make([]NamedMinistryStats, 0, len(a.names)),
	}

	sum := 0.0
	for _, p := range a.patterns {
		sum += p.AttendanceRate
		if p.Reliability == TierHigh {
			s.HighReliability++
		}
	}
	if s.Total > 0 {
		s.AverageAttendanceRate = sum / float64(s.Total)
	}

	ranked := slices.Clone(a.patterns)
	slices.SortStableFunc(ranked, func(x, y Pattern) int { return cmp.Compare(y.AttendanceRate, x.AttendanceRate) })
	s.MostReliable = ranked[:min(topReliable, len(ranked))]

	for _, name := range a.names {
		s.Ministries = append(s.Ministries, NamedMinistryStats{Name: name, MinistryStats: a.ministries[name]})
	}
	return s
}
