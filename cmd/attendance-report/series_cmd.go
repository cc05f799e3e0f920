package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/modules/attendance/services"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"
)

func newSeriesCmd() *cobra.Command {
	var (
		flags  sessionFlags
		rng    rangeFlags
		weekly bool
		recent int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Export the monthly (or weekly) attendance series",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != formatJSON && format != formatXLSX {
				return fmt.Errorf("invalid --format %q (expected json|xlsx)", format)
			}
			if format == formatXLSX && strings.TrimSpace(out) == "" {
				return fmt.Errorf("--out is required for --format xlsx")
			}
			r, err := rng.parse()
			if err != nil {
				return err
			}

			if format == formatJSON {
				return run(cmd, flags, "series", func(s *session) (any, error) {
					if weekly {
						return s.analytics.WeeklySeries(s.ctx, s.actorID, r, recent)
					}
					return s.analytics.MonthlySeries(s.ctx, s.actorID, r)
				})
			}

			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			var wb workbook
			if weekly {
				rows, err := s.analytics.WeeklySeries(s.ctx, s.actorID, r, recent)
				if err != nil {
					return err
				}
				wb, err = weeklyWorkbook(rows)
				if err != nil {
					return err
				}
			} else {
				rows, err := s.analytics.MonthlySeries(s.ctx, s.actorID, r)
				if err != nil {
					return err
				}
				wb, err = monthlyWorkbook(rows)
				if err != nil {
					return err
				}
			}
			defer wb.Close()
			if err := wb.SaveAs(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return err
		},
	}
	flags.bind(cmd)
	rng.bind(cmd)
	cmd.Flags().BoolVar(&weekly, "weekly", false, "Export per-leader weekly rows instead of monthly buckets")
	cmd.Flags().IntVar(&recent, "recent", services.DefaultRecentWeeks, "Number of most recent weekly rows (with --weekly)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "Output format: json|xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output file (required for xlsx)")
	return cmd
}
