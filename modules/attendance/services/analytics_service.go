package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/pkg/composables"
)

var tracer = otel.Tracer("koinonia-attendance")

const (
	opSummary = "summary"
	opMonthly = "series_monthly"
	opWeekly  = "series_weekly"
	opGrowth  = "growth"
	opNetwork = "network"
)

type ServiceOptions struct {
	RecentWeeks int
	Network     NetworkOptions
}

type ScopeView struct {
	ActorID   string      `json:"actor_id"`
	Role      person.Role `json:"role"`
	LeaderIDs []string    `json:"leader_ids"`
}

type Summary struct {
	Range    period.DateRange `json:"range"`
	Leaders  int              `json:"leaders"`
	Totals   Totals           `json:"totals"`
	ByLeader []LeaderTotals   `json:"by_leader"`
}

type Forecast struct {
	Range  period.DateRange `json:"range"`
	Series []MonthlyBucket  `json:"series"`
	Next   int              `json:"next"`
	OK     bool             `json:"ok"`
}

// AnalyticsService resolves the actor, applies scoping and caching, and delegates to the engine components.
type AnalyticsService struct {
	directory PersonDirectory
	reports   ReportStore
	resolver  *ScopeResolver
	growth    *GrowthCalculator
	network   *NetworkComposer
	cache     ResultCache
	opts      ServiceOptions
	logger    *logrus.Entry
}

func NewAnalyticsService(
	directory PersonDirectory,
	reports ReportStore,
	rosters RosterStore,
	cache ResultCache,
	opts ServiceOptions,
	logger *logrus.Entry,
) *AnalyticsService {
	if cache == nil {
		cache = NoopCache{}
	}
	if opts.RecentWeeks <= 0 {
		opts.RecentWeeks = DefaultRecentWeeks
	}
	logger = logger.WithField("module", "attendance")
	return &AnalyticsService{
		directory: directory,
		reports:   reports,
		resolver:  NewScopeResolver(directory, logger),
		growth:    NewGrowthCalculator(reports, logger),
		network:   NewNetworkComposer(directory, reports, rosters, opts.Network, logger),
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

func (s *AnalyticsService) RecentWeeks() int { return s.opts.RecentWeeks }

func (s *AnalyticsService) Scope(ctx context.Context, actorID string) (ScopeView, error) {
	ctx, span := startSpan(ctx, "attendance.Scope", actorID)
	defer span.End()

	viewer, ids, err := s.resolve(ctx, actorID)
	if err != nil {
		return ScopeView{}, endSpan(span, err)
	}
	return ScopeView{ActorID: viewer.Actor().ID(), Role: viewer.Actor().Role(), LeaderIDs: ids}, nil
}

func (s *AnalyticsService) Summary(ctx context.Context, actorID string, r period.DateRange) (Summary, error) {
	ctx, span := startSpan(ctx, "attendance.Summary", actorID)
	defer span.End()

	if err := r.Validate(); err != nil {
		return Summary{}, endSpan(span, invalidQuery("invalid date range", err))
	}
	_, ids, err := s.resolve(ctx, actorID)
	if err != nil {
		return Summary{}, endSpan(span, err)
	}
	out, err := cached(ctx, s, opSummary, scopeKey(ids, r.String()), func(ctx context.Context) (Summary, error) {
		reports, err := s.reports.FetchReports(ctx, ids, r)
		if err != nil {
			return Summary{}, collaboratorUnavailable("fetch reports", err)
		}
		totals := Aggregate(reports)
		reportWarnings(s.requestLogger(ctx), totals.Warnings)
		return Summary{Range: r, Leaders: len(ids), Totals: totals, ByLeader: AggregateByLeader(reports)}, nil
	})
	return out, endSpan(span, err)
}

func (s *AnalyticsService) MonthlySeries(ctx context.Context, actorID string, r period.DateRange) ([]MonthlyBucket, error) {
	ctx, span := startSpan(ctx, "attendance.MonthlySeries", actorID)
	defer span.End()

	if err := r.Validate(); err != nil {
		return nil, endSpan(span, invalidQuery("invalid date range", err))
	}
	_, ids, err := s.resolve(ctx, actorID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	out, err := cached(ctx, s, opMonthly, scopeKey(ids, r.String()), func(ctx context.Context) ([]MonthlyBucket, error) {
		return s.monthly(ctx, ids, r)
	})
	return out, endSpan(span, err)
}

// WeeklySeries returns the latest recent weekly rows. recent <= 0 selects the configured window.
func (s *AnalyticsService) WeeklySeries(ctx context.Context, actorID string, r period.DateRange, recent int) ([]WeeklyBucket, error) {
	ctx, span := startSpan(ctx, "attendance.WeeklySeries", actorID)
	defer span.End()

	if err := r.Validate(); err != nil {
		return nil, endSpan(span, invalidQuery("invalid date range", err))
	}
	if recent <= 0 {
		recent = s.opts.RecentWeeks
	}
	_, ids, err := s.resolve(ctx, actorID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	key := scopeKey(ids, r.String(), strconv.Itoa(recent))
	out, err := cached(ctx, s, opWeekly, key, func(ctx context.Context) ([]WeeklyBucket, error) {
		reports, err := s.reports.FetchReports(ctx, ids, r)
		if err != nil {
			return nil, collaboratorUnavailable("fetch reports", err)
		}
		reportWarnings(s.requestLogger(ctx), collectWarnings(reports))
		return BucketWeekly(reports, recent), nil
	})
	return out, endSpan(span, err)
}

func (s *AnalyticsService) Growth(ctx context.Context, actorID string, r period.DateRange) (GrowthResult, error) {
	ctx, span := startSpan(ctx, "attendance.Growth", actorID)
	defer span.End()

	if err := r.Validate(); err != nil {
		return GrowthResult{}, endSpan(span, invalidQuery("invalid date range", err))
	}
	_, ids, err := s.resolve(ctx, actorID)
	if err != nil {
		return GrowthResult{}, endSpan(span, err)
	}
	out, err := cached(ctx, s, opGrowth, scopeKey(ids, r.String()), func(ctx context.Context) (GrowthResult, error) {
		return s.growth.Compute(ctx, r, ids)
	})
	return out, endSpan(span, err)
}

// Forecast projects next month's total presence from the monthly series over r.
func (s *AnalyticsService) Forecast(ctx context.Context, actorID string, r period.DateRange) (Forecast, error) {
	series, err := s.MonthlySeries(ctx, actorID, r)
	if err != nil {
		return Forecast{}, err
	}
	next, ok := ForecastNext(MonthlyTotals(series))
	return Forecast{Range: r, Series: series, Next: next, OK: ok}, nil
}

func (s *AnalyticsService) Network(ctx context.Context, actorID string, now time.Time) (*NetworkNode, error) {
	ctx, span := startSpan(ctx, "attendance.Network", actorID)
	defer span.End()

	viewer, err := s.viewer(ctx, actorID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	if now.IsZero() {
		now = time.Now()
	}
	key := scopeKey([]string{viewer.Actor().ID()}, now.UTC().Format(time.DateOnly))
	out, err := cached(ctx, s, opNetwork, key, func(ctx context.Context) (*NetworkNode, error) {
		return s.network.ComposeViewer(ctx, viewer, now)
	})
	return out, endSpan(span, err)
}

// InvalidateCache drops every cached result of the tenant in ctx.
func (s *AnalyticsService) InvalidateCache(ctx context.Context, reason string) error {
	if err := s.cache.InvalidateTenant(ctx); err != nil {
		return collaboratorUnavailable("invalidate cache", err)
	}
	recordCacheInvalidate(reason)
	s.requestLogger(ctx).WithFields(logrus.Fields{
		"reason":     InvalidationReason(reason),
		"raw_reason": reason,
	}).Info("attendance.cache.invalidated")
	return nil
}

func (s *AnalyticsService) monthly(ctx context.Context, ids []string, r period.DateRange) ([]MonthlyBucket, error) {
	reports, err := s.reports.FetchReports(ctx, ids, r)
	if err != nil {
		return nil, collaboratorUnavailable("fetch reports", err)
	}
	reportWarnings(s.requestLogger(ctx), collectWarnings(reports))
	return BucketMonthly(reports), nil
}

func (s *AnalyticsService) viewer(ctx context.Context, actorID string) (Viewer, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, invalidQuery("actor id is required", nil)
	}
	actor, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return nil, actorNotFound(actorID, err)
		}
		return nil, collaboratorUnavailable("get actor", err)
	}
	return ViewerFor(actor)
}

func (s *AnalyticsService) resolve(ctx context.Context, actorID string) (Viewer, []string, error) {
	viewer, err := s.viewer(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	ids, err := s.resolver.ResolveViewer(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	return viewer, ids, nil
}

func (s *AnalyticsService) requestLogger(ctx context.Context) *logrus.Entry {
	return composables.UseLogger(ctx).WithField("module", "attendance")
}

// cached serves op from the result cache when possible. Cache failures degrade to a recompute.
func cached[T any](ctx context.Context, s *AnalyticsService, op, key string, compute func(context.Context) (T, error)) (T, error) {
	fullKey := op + ":" + key
	logger := s.requestLogger(ctx).WithFields(logrus.Fields{"operation": op, "cache_key": fullKey})

	if raw, ok, err := s.cache.Get(ctx, fullKey); err != nil {
		logger.WithError(err).Warn("attendance.cache.get_failed")
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			recordCacheRequest(op, true)
			return v, nil
		}
		logger.Warn("attendance.cache.decode_failed")
	}
	recordCacheRequest(op, false)

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, fullKey, raw); err != nil {
			logger.WithError(err).Warn("attendance.cache.set_failed")
		}
	}
	return v, nil
}

func scopeKey(ids []string, parts ...string) string {
	h := strconv.FormatUint(xxhash.Sum64String(strings.Join(ids, ",")), 16)
	return strings.Join(append([]string{h}, parts...), ":")
}

func startSpan(ctx context.Context, name, actorID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("attendance.actor_id", actorID)))
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
