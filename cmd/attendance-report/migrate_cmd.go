package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/modules/attendance"
	"github.com/koinonia-app/koinonia/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the attendance schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := configuration.LoadEnv([]string{".env", ".env.local"}); err != nil {
				return err
			}
			conf, err := configuration.Parse()
			if err != nil {
				return err
			}
			db, err := sql.Open("postgres", conf.Database.Opts)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := pingDB(cmd.Context(), db, 5*time.Second); err != nil {
				return err
			}

			goose.SetBaseFS(attendance.MigrationFiles)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			ctx := cmd.Context()
			switch args[0] {
			case "up":
				return goose.UpContext(ctx, db, attendance.MigrationsDir)
			case "down":
				return goose.DownContext(ctx, db, attendance.MigrationsDir)
			default:
				return goose.StatusContext(ctx, db, attendance.MigrationsDir)
			}
		},
	}
	return cmd
}

func pingDB(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
