package main

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/koinonia-app/koinonia/modules/attendance/services"
)

type workbook interface {
	SaveAs(name string, opts ...excelize.Options) error
	Close() error
}

var (
	monthlyHeader = []any{"month", "members", "visitors", "total", "weeks", "avg_members", "avg_visitors", "avg_total"}
	weeklyHeader  = []any{"leader_id", "week_start", "week_end", "members", "visitors", "total"}
)

func monthlyWorkbook(rows []services.MonthlyBucket) (*excelize.File, error) {
	data := make([][]any, 0, len(rows))
	for _, b := range rows {
		data = append(data, []any{
			b.Label(), b.Members, b.Visitors, b.Total,
			b.WeeksContributing, b.AverageMembers, b.AverageVisitors, b.AverageTotal,
		})
	}
	return newSheet("Monthly", monthlyHeader, data)
}

func weeklyWorkbook(rows []services.WeeklyBucket) (*excelize.File, error) {
	data := make([][]any, 0, len(rows))
	for _, b := range rows {
		data = append(data, []any{
			b.LeaderID, b.WeekStart.Format(time.DateOnly), b.WeekEnd.Format(time.DateOnly),
			b.Members, b.Visitors, b.Total,
		})
	}
	return newSheet("Weekly", weeklyHeader, data)
}

func newSheet(name string, header []any, rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
