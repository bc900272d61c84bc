// Package growth estimates how quickly seekers join small groups and simulates
// small-group membership week by week.
package growth

import (
	"fmt"
	"math"

	"github.com/okian/shepherd/internal/domain/model"
)

const weeksPerMonth = 4

// Params are the tunables of the growth simulation.
type Params struct {
	DefaultRate      float64 // conversion rate without history
	DefaultWeeks     float64 // conversion latency without history
	WeeklyInflow     float64 // new seekers per week
	SnapshotInterval int     // weeks between snapshots
}

// DefaultParams returns the stock tunables.
func DefaultParams() Params {
	return Params{
		DefaultRate:      0.25,
		DefaultWeeks:     4,
		WeeklyInflow:     0.5,
		SnapshotInterval: 4,
	}
}

// Validate checks the tunables are usable.
func (p Params) Validate() error {
	switch {
	case p.DefaultRate < 0 || p.DefaultRate > 1:
		return fmt.Errorf("growth: default rate must be in [0,1], got %v", p.DefaultRate)
	case p.DefaultWeeks <= 0:
		return fmt.Errorf("growth: default weeks must be positive, got %v", p.DefaultWeeks)
	case p.WeeklyInflow < 0:
		return fmt.Errorf("growth: weekly inflow must not be negative, got %v", p.WeeklyInflow)
	case p.SnapshotInterval < 1:
		return fmt.Errorf("growth: snapshot interval must be positive, got %d", p.SnapshotInterval)
	}
	return nil
}

// Model is the learned conversion behavior.
type Model struct {
	Rate        float64 `json:"conversionRate"`
	AvgWeeks    float64 `json:"avgTimeToConvert"`
	ColdStart   bool    `json:"coldStart"`
	Conversions int     `json:"conversions"`
	Seekers     int     `json:"seekers"`

	params Params
}

// Snapshot is the simulated state at the end of a snapshot week.
type Snapshot struct {
	Week        int `json:"week"`
	Month       int `json:"month"`
	Seekers     int `json:"seekers"`
	Members     int `json:"members"`
	TotalGrowth int `json:"totalGrowth"`
}

// Analyze learns conversion behavior with the default tunables.
func Analyze(members []model.Member, attendance []model.Attendance) Model {
	return DefaultParams().Analyze(members, attendance)
}

// Analyze counts a seeker with an assigned group leader as converted. The rate
// is conversions over all seekers, and the latency is the mean number of
// check-ins per converted member. Without conversions the defaults apply.
func (p Params) Analyze(members []model.Member, attendance []model.Attendance) Model {
	seekers := 0
	converted := make(map[string]int)
	for _, m := range members {
		if !m.FinalTags.IsSeeker {
			continue
		}
		seekers++
		if m.HasLeader() {
			converted[m.ID] = 0
		}
	}

	if len(converted) == 0 {
		return Model{
			Rate:      p.DefaultRate,
			AvgWeeks:  p.DefaultWeeks,
			ColdStart: true,
			Seekers:   seekers,
			params:    p,
		}
	}

	for _, a := range attendance {
		if _, ok := converted[a.MemberID]; ok {
			converted[a.MemberID]++
		}
	}
	total := 0
	for _, n := range converted {
		total += n
	}

	return Model{
		Rate:        float64(len(converted)) / float64(max(seekers, 1)),
		AvgWeeks:    float64(total) / float64(len(converted)),
		Conversions: len(converted),
		Seekers:     seekers,
		params:      p,
	}
}

// Forecast simulates weeksAhead weeks from the current head counts.
func (m Model) Forecast(currentSeekers, currentMembers float64, weeksAhead int) []Snapshot {
	p := m.params
	if p.SnapshotInterval < 1 {
		p = DefaultParams()
	}
	interval := max(int(math.Ceil(m.AvgWeeks)), 1)

	seekers, members := currentSeekers, currentMembers
	out := make([]Snapshot, 0, max(weeksAhead/p.SnapshotInterval, 0))
	for week := 1; week <= weeksAhead; week++ {
		seekers += p.WeeklyInflow

		if week%interval == 0 {
			converting := math.Floor(seekers * m.Rate)
			seekers -= converting
			members += converting
		}

		if week%p.SnapshotInterval == 0 {
			out = append(out, Snapshot{
				Week:        week,
				Month:       (week + weeksPerMonth - 1) / weeksPerMonth,
				Seekers:     int(math.Round(seekers)),
				Members:     int(math.Round(members)),
				TotalGrowth: int(math.Round(members - currentMembers)),
			})
		}
	}
	return out
}
