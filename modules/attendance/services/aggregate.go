package services

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
)

const (
	FieldMembersPresent  = "members_present"
	FieldVisitorsPresent = "visitors_present"
)

// DataShapeWarning marks a presence field that was not a list of ids and was counted as empty.
type DataShapeWarning struct {
	LeaderID  string    `json:"leader_id"`
	WeekStart time.Time `json:"week_start"`
	Field     string    `json:"field"`
}

func (w DataShapeWarning) String() string {
	return fmt.Sprintf("report %s/%s: malformed %s", w.LeaderID, w.WeekStart.Format(time.DateOnly), w.Field)
}

type Totals struct {
	TotalMembers    int                `json:"total_members"`
	TotalVisitors   int                `json:"total_visitors"`
	TotalPresence   int                `json:"total_presence"`
	AveragePresence float64            `json:"average_presence"`
	Reports         int                `json:"reports"`
	Warnings        []DataShapeWarning `json:"warnings,omitempty"`
}

// Empty reports whether no report contributed to the totals.
func (t Totals) Empty() bool { return t.Reports == 0 }

// Add merges two totals. Counts are summed and the average is recomputed from the merged report count.
func (t Totals) Add(other Totals) Totals {
	out := Totals{
		TotalMembers:  t.TotalMembers + other.TotalMembers,
		TotalVisitors: t.TotalVisitors + other.TotalVisitors,
		Reports:       t.Reports + other.Reports,
	}
	out.TotalPresence = out.TotalMembers + out.TotalVisitors
	out.AveragePresence = ratio2(out.TotalPresence, out.Reports)
	if len(t.Warnings)+len(other.Warnings) > 0 {
		out.Warnings = make([]DataShapeWarning, 0, len(t.Warnings)+len(other.Warnings))
		out.Warnings = append(out.Warnings, t.Warnings...)
		out.Warnings = append(out.Warnings, other.Warnings...)
	}
	return out
}

func Aggregate(reports []report.AttendanceReport) Totals {
	var t Totals
	for _, r := range reports {
		t.TotalMembers += r.MembersPresent.Count()
		t.TotalVisitors += r.VisitorsPresent.Count()
		t.Warnings = append(t.Warnings, inspectReport(r)...)
	}
	t.Reports = len(reports)
	t.TotalPresence = t.TotalMembers + t.TotalVisitors
	t.AveragePresence = ratio2(t.TotalPresence, t.Reports)
	return t
}

type LeaderTotals struct {
	LeaderID string `json:"leader_id"`
	Totals
}

// AggregateByLeader folds reports into one Totals per leader, ordered by leader id.
func AggregateByLeader(reports []report.AttendanceReport) []LeaderTotals {
	grouped := make(map[string][]report.AttendanceReport)
	for _, r := range reports {
		grouped[r.LeaderID] = append(grouped[r.LeaderID], r)
	}
	out := make([]LeaderTotals, 0, len(grouped))
	for id, rs := range grouped {
		out = append(out, LeaderTotals{LeaderID: id, Totals: Aggregate(rs)})
	}
	slices.SortFunc(out, func(a, b LeaderTotals) int { return cmp.Compare(a.LeaderID, b.LeaderID) })
	return out
}

func collectWarnings(reports []report.AttendanceReport) []DataShapeWarning {
	var out []DataShapeWarning
	for _, r := range reports {
		out = append(out, inspectReport(r)...)
	}
	return out
}

func inspectReport(r report.AttendanceReport) []DataShapeWarning {
	var out []DataShapeWarning
	if !r.MembersPresent.Valid() {
		out = append(out, DataShapeWarning{LeaderID: r.LeaderID, WeekStart: r.WeekStart, Field: FieldMembersPresent})
	}
	if !r.VisitorsPresent.Valid() {
		out = append(out, DataShapeWarning{LeaderID: r.LeaderID, WeekStart: r.WeekStart, Field: FieldVisitorsPresent})
	}
	return out
}

// reportWarnings logs and counts every warning once.
func reportWarnings(logger *logrus.Entry, warnings []DataShapeWarning) {
	for _, w := range warnings {
		recordDataShapeWarning(w.Field)
		logger.WithFields(logrus.Fields{
			"leader_id":  w.LeaderID,
			"week_start": w.WeekStart.Format(time.DateOnly),
			"field":      w.Field,
		}).Warn("attendance.report.malformed_presence")
	}
}
