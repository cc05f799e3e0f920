package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/koinonia-app/koinonia/modules/attendance/services"
)

func TestMonthlyWorkbook_WritesHeaderAndRows(t *testing.T) {
	f, err := monthlyWorkbook([]services.MonthlyBucket{
		{Year: 2024, Month: 1, Members: 10, Visitors: 2, Total: 12, WeeksContributing: 2, AverageMembers: 5, AverageVisitors: 1, AverageTotal: 6},
		{Year: 2024, Month: 2, Members: 4, Total: 4, WeeksContributing: 1, AverageMembers: 4, AverageTotal: 4},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows("Monthly")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "month", rows[0][0])
	require.Equal(t, []string{"2024-01", "10", "2", "12", "2", "5", "1", "6"}, rows[1])
	require.Equal(t, "2024-02", rows[2][0])
}

func TestWeeklyWorkbook_SavesToDisk(t *testing.T) {
	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f, err := weeklyWorkbook([]services.WeeklyBucket{
		{LeaderID: "L1", WeekStart: week, WeekEnd: week.AddDate(0, 0, 6), Members: 3, Visitors: 1, Total: 4},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "weekly.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	reopened, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	rows, err := reopened.GetRows("Weekly")
	require.NoError(t, err)
	require.Equal(t, []string{"L1", "2024-01-01", "2024-01-07", "3", "1", "4"}, rows[1])
}

func TestEncodeJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeJSON(&buf, reportOutput{Command: "scope", Result: []string{"L1"}}))
	require.Contains(t, buf.String(), "\n  \"command\": \"scope\"")
}

func TestRangeFlags_RejectsInvertedRange(t *testing.T) {
	f := rangeFlags{from: "2024-02-01", to: "2024-01-01"}
	_, err := f.parse()
	require.Error(t, err)

	f = rangeFlags{from: "2024-01-01", to: "2024-01-31"}
	r, err := f.parse()
	require.NoError(t, err)
	require.Equal(t, 31, r.Days())
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"scope", "summary", "series", "growth", "network", "migrate"})
}
