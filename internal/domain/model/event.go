// Package model contains the records the analytics consume. They are owned by the
// membership stores and arrive here as already-fetched snapshots.
package model

import (
	"strings"
	"time"
)

// Event types with special handling.
const (
	EventTypeService = "service"
	EventTypeSpecial = "special"
	EventTypeRegular = "regular"
)

// MinistryNone marks a regular (non-serving) check-in.
const MinistryNone = "N/A"

// Event is a scheduled branch gathering.
type Event struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	EventType string `json:"eventType"`
	Name      string `json:"name"`
}

// Time parses Date. It returns false for empty or malformed dates.
func (e Event) Time() (time.Time, bool) {
	return ParseDate(e.Date)
}

// Attendance is one check-in of a member at an event.
type Attendance struct {
	MemberID  string    `json:"memberId"`
	EventID   string    `json:"eventId"`
	Date      string    `json:"date,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
	Ministry  string    `json:"ministry,omitempty"`
}

// At normalizes the check-in time, preferring the timestamp over the date.
func (a Attendance) At() (time.Time, bool) {
	if t, ok := a.Timestamp.Time(); ok {
		return t, true
	}
	return DateString(a.Date).Time()
}

// Served reports whether the attendee served in a ministry at the event.
func (a Attendance) Served() bool {
	m := strings.TrimSpace(a.Ministry)
	return m != "" && m != MinistryNone
}
