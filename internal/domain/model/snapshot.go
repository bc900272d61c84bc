package model

import (
	"github.com/okian/shepherd/internal/domain/dedupe"
)

// Snapshot is a consistent, already-fetched bundle of branch records.
type Snapshot struct {
	Events     []Event      `json:"events"`
	Attendance []Attendance `json:"attendance"`
	Members    []Member     `json:"members"`
}

// Normalize returns a copy with duplicate check-ins removed. The first check-in of a
// member at an event wins, later ones are dropped. Rows without a member or event
// reference are kept as-is.
func (s Snapshot) Normalize() Snapshot {
	seen := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(len(s.Attendance)))
	rows := make([]Attendance, 0, len(s.Attendance))
	for _, a := range s.Attendance {
		if a.MemberID != "" && a.EventID != "" && seen.SeenAndRecord(dedupe.CheckInKey(a.EventID, a.MemberID)) {
			continue
		}
		rows = append(rows, a)
	}

	return Snapshot{
		Events:     s.Events,
		Attendance: rows,
		Members:    s.Members,
	}
}

// ActiveMembers returns members that are not archived.
func (s Snapshot) ActiveMembers() []Member {
	return s.filterMembers(func(Member) bool { return true })
}

// Volunteers returns active members tagged as volunteers.
func (s Snapshot) Volunteers() []Member {
	return s.filterMembers(func(m Member) bool { return m.FinalTags.IsVolunteer })
}

// Seekers returns active members tagged as seekers.
func (s Snapshot) Seekers() []Member {
	return s.filterMembers(func(m Member) bool { return m.FinalTags.IsSeeker })
}

// GroupMembers returns active members assigned to a small-group leader.
func (s Snapshot) GroupMembers() []Member {
	return s.filterMembers(Member.HasLeader)
}

func (s Snapshot) filterMembers(keep func(Member) bool) []Member {
	out := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if m.IsArchived() || !keep(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}
