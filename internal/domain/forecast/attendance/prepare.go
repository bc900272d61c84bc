package attendance

import (
	"time"

	"github.com/okian/shepherd/internal/domain/model"
)

// Prepare turns raw events and check-ins into observations: one per past event
// with at least one check-in. Events dated after now are skipped and a missing
// event type becomes "regular".
func Prepare(events []model.Event, attendance []model.Attendance, now time.Time) []Observation {
	counts := make(map[string]int, len(events))
	for _, a := range attendance {
		counts[a.EventID]++
	}

	out := make([]Observation, 0, len(events))
	for _, e := range events {
		at, ok := e.Time()
		if !ok || at.After(now) {
			continue
		}
		n := counts[e.ID]
		if n == 0 {
			continue
		}
		kind := e.EventType
		if kind == "" {
			kind = model.EventTypeRegular
		}
		out = append(out, Observation{
			Date:      e.Date,
			Count:     &n,
			EventType: kind,
			Name:      e.Name,
		})
	}
	return out
}
