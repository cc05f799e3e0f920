package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/modules/attendance"
	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/modules/attendance/services"
	"github.com/koinonia-app/koinonia/pkg/composables"
	"github.com/koinonia-app/koinonia/pkg/configuration"
	"github.com/koinonia-app/koinonia/pkg/logging"
)

// sessionFlags are shared by every report command.
type sessionFlags struct {
	tenant string
	actor  string
}

func (f *sessionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&f.actor, "actor", "", "Id of the person viewing the report (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("actor")
}

type rangeFlags struct {
	from string
	to   string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	now := time.Now().UTC()
	cmd.Flags().StringVar(&f.from, "from", now.AddDate(0, -3, 0).Format(time.DateOnly), "Range start (UTC, YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", now.Format(time.DateOnly), "Range end (UTC, YYYY-MM-DD)")
}

func (f *rangeFlags) parse() (period.DateRange, error) {
	r, err := period.Parse(strings.TrimSpace(f.from), strings.TrimSpace(f.to))
	if err != nil {
		return period.DateRange{}, fmt.Errorf("invalid --from/--to: %w", err)
	}
	return r, nil
}

type session struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	analytics *services.AnalyticsService
	tenantID  uuid.UUID
	actorID   string
	conf      *configuration.Configuration
}

func (s *session) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openSession(ctx context.Context, flags sessionFlags) (*session, error) {
	tenantID, err := uuid.Parse(strings.TrimSpace(flags.tenant))
	if err != nil {
		return nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	actorID := strings.TrimSpace(flags.actor)
	if actorID == "" {
		return nil, fmt.Errorf("--actor is required")
	}
	if _, err := configuration.LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, err
	}
	conf, err := configuration.Parse()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger := logging.ConsoleLogger(conf.LogrusLogLevel())
	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithTenantID(ctx, tenantID)
	ctx = composables.WithLogger(ctx, logger.WithField("entrypoint", "attendance-report"))

	return &session{
		ctx:       ctx,
		pool:      pool,
		analytics: attendance.NewAnalyticsService(conf.Attendance, services.NoopCache{}, logger),
		tenantID:  tenantID,
		actorID:   actorID,
		conf:      conf,
	}, nil
}

// run opens a session, executes fn and prints its result wrapped in a reportOutput.
func run(cmd *cobra.Command, flags sessionFlags, name string, fn func(s *session) (any, error)) error {
	s, err := openSession(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	res, err := fn(s)
	if err != nil {
		return err
	}
	return writeJSON(reportOutput{
		Command:    name,
		Tenant:     s.tenantID.String(),
		Actor:      s.actorID,
		DurationMS: time.Since(start).Milliseconds(),
		Result:     res,
	})
}
