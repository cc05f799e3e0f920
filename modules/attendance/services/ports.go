package services

import (
	"context"
	"time"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
)

// ReportStore returns the weekly reports of the given leaders whose week starts inside r.
// An empty leaderIDs slice yields an empty result, not an error.
type ReportStore interface {
	FetchReports(ctx context.Context, leaderIDs []string, r period.DateRange) ([]report.AttendanceReport, error)
}

// LatestReportStore is implemented by stores that can return each leader's most recent report in one read.
// Reports whose week starts after the day of asOf are not considered.
type LatestReportStore interface {
	FetchLatestReports(ctx context.Context, leaderIDs []string, asOf time.Time) (map[string]report.AttendanceReport, error)
}

type PersonDirectory interface {
	GetByID(ctx context.Context, id string) (person.Person, error)
	FetchSubordinates(ctx context.Context, supervisorID string, role person.Role) ([]person.Person, error)
	ListByRole(ctx context.Context, role person.Role) ([]person.Person, error)
	// FetchHierarchy returns every leadership person of the tenant.
	FetchHierarchy(ctx context.Context) ([]person.Person, error)
}

// RosterCounts is the number of active members and visitors enrolled in a leader's group.
type RosterCounts struct {
	Members  int `json:"members"`
	Visitors int `json:"visitors"`
}

func (c RosterCounts) Total() int { return c.Members + c.Visitors }

// RosterStore returns roster counts keyed by leader id. Missing leaders have no enrolment.
type RosterStore interface {
	FetchRosterCounts(ctx context.Context, leaderIDs []string) (map[string]RosterCounts, error)
}
