package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show scheduler statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{}
			for _, status := range []string{"pending", "processing", "completed", "failed", "cancelled"} {
				rows = append(rows, []string{statusLabel(status), fmt.Sprintf("%d", stats.Counts[status])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Status", "Jobs"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workers: %d/%d active\n", stats.ActiveWorkers, stats.MaxWorkers)
			fmt.Fprintf(out, "Queue:   %d/%d\n", stats.QueueDepth, stats.QueueCapacity)
			if stats.AverageCompletionSeconds > 0 {
				avg := time.Duration(stats.AverageCompletionSeconds * float64(time.Second))
				fmt.Fprintf(out, "Average completion: %s\n", avg.Round(time.Second))
			}
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon %s (version %s)\n", health.Status, health.Version)
			return nil
		},
	}
}
