package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by event records.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DateLike is anything with a deterministic conversion to a calendar instant.
// ok is false when the value is absent or cannot be interpreted.
type DateLike interface {
	Time() (t time.Time, ok bool)
}

// ParseDate accepts a calendar date or an ISO-8601 timestamp. Dates without a
// zone are interpreted as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateString is a DateLike plain string.
type DateString string

// Time implements DateLike.
func (d DateString) Time() (time.Time, bool) {
	return ParseDate(string(d))
}

// Timestamp is a check-in instant as stored by the document store. On the wire it
// is either an ISO string, epoch milliseconds, or a {seconds, nanoseconds} wrapper.
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// Time implements DateLike.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, !ts.t.IsZero()
}

// IsZero reports whether no instant is set.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

type storeTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable strings decode to the
// zero Timestamp so a single bad row does not reject a whole snapshot.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	ts.t = time.Time{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		if t, ok := ParseDate(s); ok {
			ts.t = t
		}
		return nil
	case '{':
		var st storeTimestamp
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		switch {
		case st.Seconds != nil:
			ts.t = time.Unix(*st.Seconds, st.Nanoseconds).UTC()
		case st.USeconds != nil:
			ts.t = time.Unix(*st.USeconds, st.UNanoseconds).UTC()
		}
		return nil
	default:
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		ts.t = time.UnixMilli(ms).UTC()
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}
