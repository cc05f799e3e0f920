package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "attendance-report",
		Short:         "Attendance analytics reports over the leadership hierarchy",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		newScopeCmd(),
		newSummaryCmd(),
		newSeriesCmd(),
		newGrowthCmd(),
		newNetworkCmd(),
		newMigrateCmd(),
	)
	return cmd
}
