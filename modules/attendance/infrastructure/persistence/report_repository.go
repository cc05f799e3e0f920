package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/modules/attendance/infrastructure/persistence/models"
	"github.com/koinonia-app/koinonia/pkg/composables"
)

const (
	reportColumns = `leader_id, week_start, members_present, visitors_present, COALESCE(phase, '')`

	fetchReportsSQL = `
SELECT ` + reportColumns + `
FROM attendance_reports
WHERE tenant_id = $1
	AND leader_id = ANY($2::text[])
	AND week_start BETWEEN $3 AND $4
ORDER BY week_start, leader_id`

	fetchLatestReportsSQL = `
SELECT DISTINCT ON (leader_id) ` + reportColumns + `
FROM attendance_reports
WHERE tenant_id = $1
	AND leader_id = ANY($2::text[])
	AND week_start <= $3
ORDER BY leader_id, week_start DESC`
)

// ReportRepository reads weekly reports. Presence columns are parsed leniently; malformed values surface as
// invalid presences instead of query errors.
type ReportRepository struct{}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{}
}

func (r *ReportRepository) FetchReports(ctx context.Context, leaderIDs []string, rng period.DateRange) ([]report.AttendanceReport, error) {
	if len(leaderIDs) == 0 {
		return nil, nil
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	tx, tenantID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	return queryReports(ctx, tx, fetchReportsSQL, tenantID, pgTextArray(leaderIDs), pgDate(rng.Start), pgDate(rng.End))
}

func (r *ReportRepository) FetchLatestReports(ctx context.Context, leaderIDs []string, asOf time.Time) (map[string]report.AttendanceReport, error) {
	out := make(map[string]report.AttendanceReport, len(leaderIDs))
	if len(leaderIDs) == 0 {
		return out, nil
	}
	tx, tenantID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := queryReports(ctx, tx, fetchLatestReportsSQL, tenantID, pgTextArray(leaderIDs), pgDate(asOf))
	if err != nil {
		return nil, err
	}
	for _, rep := range reports {
		out[rep.LeaderID] = rep
	}
	return out, nil
}

func queryReports(ctx context.Context, tx composables.Tx, sql string, args ...any) ([]report.AttendanceReport, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query attendance reports")
	}
	defer rows.Close()

	var out []report.AttendanceReport
	for rows.Next() {
		var m models.AttendanceReport
		if err := rows.Scan(&m.LeaderID, &m.WeekStart, &m.MembersPresent, &m.VisitorsPresent, &m.Phase); err != nil {
			return nil, errors.Wrap(err, "scan attendance report")
		}
		out = append(out, ToDomainReport(m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate attendance reports")
	}
	return out, nil
}
