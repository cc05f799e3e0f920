package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
)

const DefaultRecentWeeks = 12

type MonthlyBucket struct {
	Year              int `json:"year"`
	Month             int `json:"month"`
	Members           int `json:"members"`
	Visitors          int `json:"visitors"`
	Total             int `json:"total"`
	WeeksContributing int `json:"weeks_contributing"`
	AverageMembers    int `json:"average_members"`
	AverageVisitors   int `json:"average_visitors"`
	AverageTotal      int `json:"average_total"`
}

func (b MonthlyBucket) Label() string {
	return time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

type WeeklyBucket struct {
	LeaderID  string    `json:"leader_id"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Members   int       `json:"members"`
	Visitors  int       `json:"visitors"`
	Total     int       `json:"total"`
}

type monthKey struct {
	year  int
	month time.Month
}

// BucketMonthly groups reports by the calendar month of their week start, ascending.
// Each report counts as one contributing week.
func BucketMonthly(reports []report.AttendanceReport) []MonthlyBucket {
	acc := make(map[monthKey]*MonthlyBucket)
	for _, r := range reports {
		k := monthKey{year: r.WeekStart.Year(), month: r.WeekStart.Month()}
		b, ok := acc[k]
		if !ok {
			b = &MonthlyBucket{Year: k.year, Month: int(k.month)}
			acc[k] = b
		}
		m, v := r.MembersPresent.Count(), r.VisitorsPresent.Count()
		b.Members += m
		b.Visitors += v
		b.Total += m + v
		b.WeeksContributing++
	}

	out := make([]MonthlyBucket, 0, len(acc))
	for _, b := range acc {
		b.AverageMembers = ratioInt(b.Members, b.WeeksContributing)
		b.AverageVisitors = ratioInt(b.Visitors, b.WeeksContributing)
		b.AverageTotal = ratioInt(b.Total, b.WeeksContributing)
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthlyBucket) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// BucketWeekly returns one row per report ordered by week start then leader id.
// When recent > 0 only the last recent rows are kept.
func BucketWeekly(reports []report.AttendanceReport, recent int) []WeeklyBucket {
	out := make([]WeeklyBucket, 0, len(reports))
	for _, r := range reports {
		m, v := r.MembersPresent.Count(), r.VisitorsPresent.Count()
		out = append(out, WeeklyBucket{
			LeaderID:  r.LeaderID,
			WeekStart: r.WeekStart,
			WeekEnd:   r.WeekEnd(),
			Members:   m,
			Visitors:  v,
			Total:     m + v,
		})
	}
	slices.SortStableFunc(out, func(a, b WeeklyBucket) int {
		if c := a.WeekStart.Compare(b.WeekStart); c != 0 {
			return c
		}
		return cmp.Compare(a.LeaderID, b.LeaderID)
	})
	if recent > 0 && len(out) > recent {
		out = out[len(out)-recent:]
	}
	return out
}

// MonthlyTotals extracts the Total column, the series the forecast runs on.
func MonthlyTotals(buckets []MonthlyBucket) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = float64(b.Total)
	}
	return out
}
