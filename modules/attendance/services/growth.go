package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
)

type GrowthResult struct {
	Current           period.DateRange `json:"current"`
	Previous          period.DateRange `json:"previous"`
	CurrentTotal      int              `json:"current_total"`
	PreviousTotal     int              `json:"previous_total"`
	GrowthRatePercent float64          `json:"growth_rate_percent"`
	// HasBaseline is false when the previous period had no presence and the rate is reported as 0.
	HasBaseline bool               `json:"has_baseline"`
	Warnings    []DataShapeWarning `json:"warnings,omitempty"`
}

type GrowthCalculator struct {
	reports ReportStore
	logger  *logrus.Entry
}

func NewGrowthCalculator(reports ReportStore, logger *logrus.Entry) *GrowthCalculator {
	return &GrowthCalculator{reports: reports, logger: logger.WithField("component", "growth_calculator")}
}

// Compute compares total presence in current against the preceding range of equal length.
func (g *GrowthCalculator) Compute(ctx context.Context, current period.DateRange, leaderIDs []string) (GrowthResult, error) {
	if err := current.Validate(); err != nil {
		return GrowthResult{}, invalidQuery("invalid date range", err)
	}
	previous := current.Previous()

	var cur, prev Totals
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		reports, err := g.reports.FetchReports(ctx, leaderIDs, current)
		if err != nil {
			return collaboratorUnavailable("fetch current reports", err)
		}
		cur = Aggregate(reports)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		reports, err := g.reports.FetchReports(ctx, leaderIDs, previous)
		if err != nil {
			return collaboratorUnavailable("fetch previous reports", err)
		}
		prev = Aggregate(reports)
		return nil
	})
	if err := p.Wait(); err != nil {
		return GrowthResult{}, collaboratorUnavailable("fetch reports", err)
	}

	res := GrowthResult{
		Current:       current,
		Previous:      previous,
		CurrentTotal:  cur.TotalPresence,
		PreviousTotal: prev.TotalPresence,
		HasBaseline:   prev.TotalPresence > 0,
		Warnings:      append(cur.Warnings, prev.Warnings...),
	}
	if res.HasBaseline {
		res.GrowthRatePercent = percent2(res.CurrentTotal-res.PreviousTotal, res.PreviousTotal)
	}
	reportWarnings(g.logger, res.Warnings)
	g.logger.WithFields(logrus.Fields{
		"current":  current.String(),
		"previous": previous.String(),
		"leaders":  len(leaderIDs),
		"rate":     res.GrowthRatePercent,
	}).Debug("attendance.growth.computed")
	return res, nil
}

// ForecastNext fits a least-squares line over x = 1..n and returns the rounded value at n+1.
// It reports false when fewer than two points are given.
func ForecastNext(values []float64) (int, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	return roundInt(alpha + beta*float64(n+1)), true
}
