package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newScopeCmd() *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "List the group leaders visible to the actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, "scope", func(s *session) (any, error) {
				return s.analytics.Scope(s.ctx, s.actorID)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		flags sessionFlags
		rng   rangeFlags
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate attendance totals over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rng.parse()
			if err != nil {
				return err
			}
			return run(cmd, flags, "summary", func(s *session) (any, error) {
				return s.analytics.Summary(s.ctx, s.actorID, r)
			})
		},
	}
	flags.bind(cmd)
	rng.bind(cmd)
	return cmd
}

func newGrowthCmd() *cobra.Command {
	var (
		flags sessionFlags
		rng   rangeFlags
	)
	cmd := &cobra.Command{
		Use:   "growth",
		Short: "Compare total presence against the preceding period of equal length",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rng.parse()
			if err != nil {
				return err
			}
			return run(cmd, flags, "growth", func(s *session) (any, error) {
				return s.analytics.Growth(s.ctx, s.actorID, r)
			})
		},
	}
	flags.bind(cmd)
	rng.bind(cmd)
	return cmd
}

func newNetworkCmd() *cobra.Command {
	var (
		flags sessionFlags
		asOf  string
	)
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Print the presence-rate tree below the actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if v := strings.TrimSpace(asOf); v != "" {
				d, err := time.Parse(time.DateOnly, v)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				now = d.Add(24*time.Hour - time.Nanosecond)
			}
			return run(cmd, flags, "network", func(s *session) (any, error) {
				return s.analytics.Network(s.ctx, s.actorID, now)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate report recency as of this date (UTC, YYYY-MM-DD)")
	return cmd
}
