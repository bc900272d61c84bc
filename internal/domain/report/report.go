// Package report builds the service comparison payload that reporting
// consumers read.
package report

import (
	"math"
	"slices"

	"github.com/okian/shepherd/internal/domain/model"
)

// Age categories and genders reported on.
const (
	AgeElevate = "Elevate"
	AgeB1G     = "B1G"

	GenderMale   = "Male"
	GenderFemale = "Female"
)

const previousServices = 3

// EventSummary is the attendance breakdown of one service.
type EventSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Total       int    `json:"total"`
	Elevate     int    `json:"elevate"`
	B1G         int    `json:"b1g"`
	FirstTimers int    `json:"firstTimers"`
	Volunteers  int    `json:"volunteers"`
}

// Demographics counts attendees by gender and age category.
type Demographics struct {
	Males      int `json:"males"`
	Females    int `json:"females"`
	AgeElevate int `json:"ageElevate"`
	AgeB1G     int `json:"ageB1G"`
}

// Comparison contrasts the latest service with up to three before it. Current is
// nil when there are no services.
type Comparison struct {
	Current        *EventSummary  `json:"current,omitempty"`
	Previous       []EventSummary `json:"previous"`
	Demographics   Demographics   `json:"demographics"`
	AttendanceRate int            `json:"attendanceRate"`
}

// BuildComparison summarizes the newest service and the three services before
// it. Demographics and attendance rate describe the newest service; the rate is
// relative to members that are not archived.
func BuildComparison(events []model.Event, attendance []model.Attendance, members []model.Member) Comparison {
	services := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.EventType == model.EventTypeService {
			services = append(services, e)
		}
	}
	if len(services) == 0 {
		return Comparison{Previous: []EventSummary{}}
	}
	slices.SortStableFunc(services, byNewest)

	idx := newIndex(attendance, members)
	current := idx.summarize(services[0])

	prev := services[1:min(len(services), 1+previousServices)]
	out := Comparison{
		Current:      &current,
		Previous:     make([]EventSummary, 0, len(prev)),
		Demographics: idx.demographics(services[:1]),
	}
	for _, e := range prev {
		out.Previous = append(out.Previous, idx.summarize(e))
	}

	active := 0
	for _, m := range members {
		if !m.IsArchived() {
			active++
		}
	}
	out.AttendanceRate = AttendanceRate(current.Total, active)
	return out
}

// byNewest orders later dates first and undated events last.
func byNewest(a, b model.Event) int {
	ta, okA := a.Time()
	tb, okB := b.Time()
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// BuildDemographics counts the attendees of events. A member attending two events
// counts twice.
func BuildDemographics(events []model.Event, attendance []model.Attendance, members []model.Member) Demographics {
	return newIndex(attendance, members).demographics(events)
}

// AttendanceRate returns attendees as a rounded percentage of active members, 0
// when there are none.
func AttendanceRate(attendees, activeMembers int) int {
	if activeMembers <= 0 {
		return 0
	}
	return int(math.Round(float64(attendees) / float64(activeMembers) * 100))
}

type index struct {
	byEvent  map[string][]model.Attendance
	byMember map[string]model.Member
}

func newIndex(attendance []model.Attendance, members []model.Member) index {
	idx := index{
		byEvent:  make(map[string][]model.Attendance),
		byMember: make(map[string]model.Member, len(members)),
	}
	for _, a := range attendance {
		idx.byEvent[a.EventID] = append(idx.byEvent[a.EventID], a)
	}
	for _, m := range members {
		if _, ok := idx.byMember[m.ID]; !ok {
			idx.byMember[m.ID] = m
		}
	}
	return idx
}

func (idx index) summarize(e model.Event) EventSummary {
	rows := idx.byEvent[e.ID]
	s := EventSummary{ID: e.ID, Name: e.Name, Date: e.Date, Total: len(rows)}

	attendees := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.Served() {
			s.Volunteers++
		}
		attendees[r.MemberID] = struct{}{}
	}
	for id := range attendees {
		m, ok := idx.byMember[id]
		if !ok {
			continue
		}
		tags := m.FinalTags
		switch {
		case tags.IsFirstTimer:
			s.FirstTimers++
		case tags.AgeCategory == AgeElevate:
			s.Elevate++
		case tags.AgeCategory == AgeB1G:
			s.B1G++
		}
	}
	return s
}

func (idx index) demographics(events []model.Event) Demographics {
	var d Demographics
	for _, e := range events {
		for _, r := range idx.byEvent[e.ID] {
			m, ok := idx.byMember[r.MemberID]
			if !ok {
				continue
			}
			switch m.Gender {
			case GenderMale:
				d.Males++
			case GenderFemale:
				d.Females++
			}
			switch m.FinalTags.AgeCategory {
			case AgeElevate:
				d.AgeElevate++
			case AgeB1G:
				d.AgeB1G++
			}
		}
	}
	return d
}
