package report

import (
	"strings"
	"time"
)

// AttendanceReport is one group leader's presence submission for one week.
type AttendanceReport struct {
	LeaderID        string    `json:"leader_id"`
	WeekStart       time.Time `json:"week_start"`
	MembersPresent  Presence  `json:"members_present"`
	VisitorsPresent Presence  `json:"visitors_present"`
	Phase           string    `json:"phase,omitempty"`
}

func New(leaderID string, weekStart time.Time, members, visitors Presence, phase string) AttendanceReport {
	return AttendanceReport{
		LeaderID:        strings.TrimSpace(leaderID),
		WeekStart:       TruncateDay(weekStart),
		MembersPresent:  members,
		VisitorsPresent: visitors,
		Phase:           strings.TrimSpace(phase),
	}
}

// WeekEnd is the last day of the week the report covers.
func (r AttendanceReport) WeekEnd() time.Time {
	return r.WeekStart.AddDate(0, 0, 6)
}

func (r AttendanceReport) Present() int {
	return r.MembersPresent.Count() + r.VisitorsPresent.Count()
}

// TruncateDay drops the clock part, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
