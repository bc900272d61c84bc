package model

import "strings"

// FinalTags are the derived member classifications.
type FinalTags struct {
	IsSeeker          bool     `json:"isSeeker"`
	IsDgroupLeader    bool     `json:"isDgroupLeader"`
	IsVolunteer       bool     `json:"isVolunteer"`
	IsFirstTimer      bool     `json:"isFirstTimer"`
	VolunteerMinistry []string `json:"volunteerMinistry"`
	AgeCategory       string   `json:"ageCategory"`
}

// Member statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Member is a branch member record.
type Member struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Gender       string    `json:"gender,omitempty"`
	Status       string    `json:"status,omitempty"`
	FinalTags    FinalTags `json:"finalTags"`
	DgroupLeader string    `json:"dgroupLeader,omitempty"`
}

// FullName joins first and last name.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// IsArchived reports whether the member was archived. Missing status counts as active.
func (m Member) IsArchived() bool {
	return m.Status == StatusArchived
}

// HasLeader reports whether the member is assigned to a small-group leader.
func (m Member) HasLeader() bool {
	return strings.TrimSpace(m.DgroupLeader) != ""
}
