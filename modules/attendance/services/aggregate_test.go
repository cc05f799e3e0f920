package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
)

func workedExample() []report.AttendanceReport {
	return []report.AttendanceReport{
		rep("L1", day(2024, 1, 1), []string{"m1", "m2"}, []string{"v1"}),
		rep("L1", day(2024, 1, 8), []string{"m1"}, nil),
	}
}

func TestAggregate_WorkedExample(t *testing.T) {
	got := Aggregate(workedExample())
	require.Equal(t, 3, got.TotalMembers)
	require.Equal(t, 1, got.TotalVisitors)
	require.Equal(t, 4, got.TotalPresence)
	require.InDelta(t, 2.0, got.AveragePresence, 1e-9)
	require.Equal(t, 2, got.Reports)
	require.Empty(t, got.Warnings)
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	require.True(t, got.Empty())
	require.Zero(t, got.AveragePresence)
}

func TestAggregate_RoundsAverage(t *testing.T) {
	got := Aggregate([]report.AttendanceReport{
		rep("L1", day(2024, 1, 1), []string{"a", "b"}, nil),
		rep("L1", day(2024, 1, 8), []string{"a", "b", "c"}, nil),
		rep("L1", day(2024, 1, 15), []string{"a", "b"}, nil),
	})
	require.InDelta(t, 2.33, got.AveragePresence, 1e-9)
}

func TestAggregate_MalformedPresenceIsWarning(t *testing.T) {
	bad := report.New("L2", day(2024, 1, 1), report.ParsePresence([]byte(`{"m1":true}`)), report.NewPresence("v1"), "")
	got := Aggregate([]report.AttendanceReport{bad, rep("L1", day(2024, 1, 1), []string{"m1"}, nil)})
	require.Equal(t, 1, got.TotalMembers)
	require.Equal(t, 1, got.TotalVisitors)
	require.Len(t, got.Warnings, 1)
	require.Equal(t, DataShapeWarning{LeaderID: "L2", WeekStart: day(2024, 1, 1), Field: FieldMembersPresent}, got.Warnings[0])
	require.Contains(t, got.Warnings[0].String(), "members_present")
}

func TestAggregate_Additivity(t *testing.T) {
	a := workedExample()
	b := []report.AttendanceReport{
		rep("L2", day(2024, 1, 1), []string{"x", "y", "z"}, []string{"w"}),
		rep("L3", day(2024, 2, 5), nil, []string{"w", "q"}),
	}
	whole := Aggregate(append(append([]report.AttendanceReport{}, a...), b...))
	merged := Aggregate(a).Add(Aggregate(b))

	require.Equal(t, whole.TotalMembers, merged.TotalMembers)
	require.Equal(t, whole.TotalVisitors, merged.TotalVisitors)
	require.Equal(t, whole.TotalPresence, merged.TotalPresence)
	require.Equal(t, whole.Reports, merged.Reports)
	require.InDelta(t, whole.AveragePresence, merged.AveragePresence, 1e-9)
}

func TestAggregateByLeader(t *testing.T) {
	reports := append(workedExample(), rep("A0", day(2024, 1, 1), []string{"k"}, []string{"j"}))
	got := AggregateByLeader(reports)
	require.Len(t, got, 2)
	require.Equal(t, "A0", got[0].LeaderID)
	require.Equal(t, 2, got[0].TotalPresence)
	require.Equal(t, "L1", got[1].LeaderID)
	require.Equal(t, 4, got[1].TotalPresence)
	require.Equal(t, 2, got[1].Reports)
}

func TestCollectWarnings(t *testing.T) {
	bad := report.New("L1", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), report.InvalidPresence(), report.InvalidPresence(), "")
	got := collectWarnings([]report.AttendanceReport{bad})
	require.Len(t, got, 2)
	require.Equal(t, FieldVisitorsPresent, got[1].Field)
}
