package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/entities/report"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
)

type NetworkNode struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Role                person.Role    `json:"role"`
	TotalMembers        int            `json:"total_members"`
	TotalVisitors       int            `json:"total_visitors"`
	AveragePresenceRate float64        `json:"average_presence_rate"`
	HasRecentReport     bool           `json:"has_recent_report"`
	LatestWeekStart     *time.Time     `json:"latest_week_start,omitempty"`
	Children            []*NetworkNode `json:"children,omitempty"`
}

// Leaves returns the number of group-leader nodes under n, counting n itself when it is one.
func (n *NetworkNode) Leaves() int {
	if len(n.Children) == 0 {
		if n.Role == person.RoleGroupLeader {
			return 1
		}
		return 0
	}
	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}
	return total
}

type NetworkOptions struct {
	RecentWindow   time.Duration
	LatestLookback time.Duration
	FanOutLimit    int
}

func DefaultNetworkOptions() NetworkOptions {
	return NetworkOptions{
		RecentWindow:   7 * 24 * time.Hour,
		LatestLookback: 90 * 24 * time.Hour,
		FanOutLimit:    8,
	}
}

type NetworkComposer struct {
	directory PersonDirectory
	reports   ReportStore
	rosters   RosterStore
	opts      NetworkOptions
	logger    *logrus.Entry
}

func NewNetworkComposer(directory PersonDirectory, reports ReportStore, rosters RosterStore, opts NetworkOptions, logger *logrus.Entry) *NetworkComposer {
	def := DefaultNetworkOptions()
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = def.RecentWindow
	}
	if opts.LatestLookback < opts.RecentWindow {
		opts.LatestLookback = max(def.LatestLookback, opts.RecentWindow)
	}
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = def.FanOutLimit
	}
	return &NetworkComposer{
		directory: directory,
		reports:   reports,
		rosters:   rosters,
		opts:      opts,
		logger:    logger.WithField("component", "network_composer"),
	}
}

// Compose builds the presence tree visible to actor as of now.
func (c *NetworkComposer) Compose(ctx context.Context, actor person.Person, now time.Time) (*NetworkNode, error) {
	viewer, err := ViewerFor(actor)
	if err != nil {
		return nil, err
	}
	return c.ComposeViewer(ctx, viewer, now)
}

func (c *NetworkComposer) ComposeViewer(ctx context.Context, viewer Viewer, now time.Time) (*NetworkNode, error) {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	actor := viewer.Actor()

	switch v := viewer.(type) {
	case LeaderViewer:
		leaves, err := c.composeLeaves(ctx, []person.Person{v.actor}, now)
		if err != nil {
			return nil, err
		}
		return leaves[0], nil
	case CoordinatorViewer:
		people, err := c.directory.FetchHierarchy(ctx)
		if err != nil {
			return nil, collaboratorUnavailable("fetch hierarchy", err)
		}
		h := NewHierarchy(people)
		leaves, err := c.composeLeaves(ctx, h.Children(v.actor.ID(), person.RoleGroupLeader), now)
		if err != nil {
			return nil, err
		}
		return parentNode(v.actor, leaves), nil
	case OverseerViewer:
		people, err := c.directory.FetchHierarchy(ctx)
		if err != nil {
			return nil, collaboratorUnavailable("fetch hierarchy", err)
		}
		return c.composeOverseer(ctx, v.actor, NewHierarchy(people), now)
	default:
		return nil, accessDenied(actor.ID(), string(actor.Role()))
	}
}

func (c *NetworkComposer) composeOverseer(ctx context.Context, actor person.Person, h *Hierarchy, now time.Time) (*NetworkNode, error) {
	coordinators := h.ByRole(person.RoleAreaCoordinator)
	children := make([]*NetworkNode, len(coordinators))

	p := pool.New().WithMaxGoroutines(c.opts.FanOutLimit).WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, coord := range coordinators {
		p.Go(func(ctx context.Context) error {
			leaves, err := c.composeLeaves(ctx, h.Children(coord.ID(), person.RoleGroupLeader), now)
			if err != nil {
				return err
			}
			children[i] = parentNode(coord, leaves)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, collaboratorUnavailable("compose network", err)
	}

	root := parentNode(actor, children)
	c.logger.WithFields(logrus.Fields{
		"actor_id":     actor.ID(),
		"coordinators": len(children),
		"leaders":      root.Leaves(),
	}).Debug("attendance.network.composed")
	return root, nil
}

// composeLeaves fetches roster counts and latest reports for leaders concurrently and builds one leaf each.
func (c *NetworkComposer) composeLeaves(ctx context.Context, leaders []person.Person, now time.Time) ([]*NetworkNode, error) {
	if len(leaders) == 0 {
		return nil, nil
	}
	ids := make([]string, len(leaders))
	for i, l := range leaders {
		ids[i] = l.ID()
	}

	var (
		rosters map[string]RosterCounts
		latest  map[string]report.AttendanceReport
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		counts, err := c.rosters.FetchRosterCounts(ctx, ids)
		if err != nil {
			return collaboratorUnavailable("fetch roster counts", err)
		}
		rosters = counts
		return nil
	})
	p.Go(func(ctx context.Context) error {
		reports, err := c.latestReports(ctx, ids, now)
		if err != nil {
			return collaboratorUnavailable("fetch latest reports", err)
		}
		latest = reports
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := make([]*NetworkNode, len(leaders))
	for i, l := range leaders {
		r, ok := latest[l.ID()]
		out[i] = leafNode(l, rosters[l.ID()], r, ok, now, c.opts.RecentWindow)
	}
	return out, nil
}

func (c *NetworkComposer) latestReports(ctx context.Context, ids []string, now time.Time) (map[string]report.AttendanceReport, error) {
	if store, ok := c.reports.(LatestReportStore); ok {
		latest, err := store.FetchLatestReports(ctx, ids, now)
		if err != nil {
			return nil, err
		}
		if !anyAfter(latest, now) {
			return latest, nil
		}
		c.logger.WithField("as_of", now.Format(time.DateOnly)).Warn("attendance.network.latest_store_unbounded")
	}
	window := period.DateRange{
		Start: report.TruncateDay(now.Add(-c.opts.LatestLookback)),
		End:   report.TruncateDay(now),
	}
	reports, err := c.reports.FetchReports(ctx, ids, window)
	if err != nil {
		return nil, err
	}
	return LatestByLeader(reports), nil
}

func anyAfter(reports map[string]report.AttendanceReport, now time.Time) bool {
	for _, r := range reports {
		if r.WeekStart.After(now) {
			return true
		}
	}
	return false
}

// LatestByLeader keeps the report with the latest week start per leader.
func LatestByLeader(reports []report.AttendanceReport) map[string]report.AttendanceReport {
	out := make(map[string]report.AttendanceReport)
	for _, r := range reports {
		if cur, ok := out[r.LeaderID]; !ok || r.WeekStart.After(cur.WeekStart) {
			out[r.LeaderID] = r
		}
	}
	return out
}

func leafNode(leader person.Person, roster RosterCounts, latest report.AttendanceReport, hasReport bool, now time.Time, window time.Duration) *NetworkNode {
	n := &NetworkNode{
		ID:            leader.ID(),
		Name:          leader.Name(),
		Role:          leader.Role(),
		TotalMembers:  roster.Members,
		TotalVisitors: roster.Visitors,
	}
	if !hasReport {
		return n
	}
	ws := latest.WeekStart
	n.LatestWeekStart = &ws
	n.AveragePresenceRate = percent2(latest.Present(), roster.Total())
	n.HasRecentReport = isRecent(ws, now, window)
	return n
}

// isRecent reports whether weekStart lies in [now-window, now].
func isRecent(weekStart, now time.Time, window time.Duration) bool {
	return !weekStart.Before(now.Add(-window)) && !weekStart.After(now)
}

// parentNode sums child totals and takes the unweighted mean of child rates.
func parentNode(p person.Person, children []*NetworkNode) *NetworkNode {
	n := &NetworkNode{
		ID:       p.ID(),
		Name:     p.Name(),
		Role:     p.Role(),
		Children: children,
	}
	rates := make([]float64, 0, len(children))
	for _, c := range children {
		n.TotalMembers += c.TotalMembers
		n.TotalVisitors += c.TotalVisitors
		n.HasRecentReport = n.HasRecentReport || c.HasRecentReport
		rates = append(rates, c.AveragePresenceRate)
	}
	n.AveragePresenceRate = mean2(rates)
	return n
}
