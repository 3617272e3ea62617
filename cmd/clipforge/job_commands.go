package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/media"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <config.json>",
		Short: "Submit a video configuration as a new job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			// Catch malformed configs locally before bothering the daemon.
			if _, err := media.ParseConfig(doc); err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Submit(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s accepted\n", resp.JobID)

			if !wait {
				return nil
			}
			return waitForJob(cmd, client, resp.JobID)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job reaches a terminal state")
	return cmd
}

func waitForJob(cmd *cobra.Command, client *apiClient, id string) error {
	lastProgress := -1
	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(time.Second):
		}

		snap, err := client.Status(cmd.Context(), id)
		if err != nil {
			return err
		}
		if snap.Progress != lastProgress {
			lastProgress = snap.Progress
			fmt.Fprintf(cmd.OutOrStdout(), "%3d%% %s\n", snap.Progress, snap.CurrentStep)
		}
		switch snap.Status {
		case "completed":
			fmt.Fprintf(cmd.OutOrStdout(), "done: %s\n", snap.OutputPath)
			return nil
		case "failed":
			return fmt.Errorf("job failed: %s", snap.ErrorMessage)
		case "cancelled":
			return fmt.Errorf("job was cancelled")
		}
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			snap, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJobDetail(cmd, snap)
			return nil
		},
	}
}

func printJobDetail(cmd *cobra.Command, snap api.JobResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", snap.JobID)
	fmt.Fprintf(out, "Status:   %s\n", statusLabel(snap.Status))
	fmt.Fprintf(out, "Progress: %d%%\n", snap.Progress)
	if snap.CurrentStep != "" {
		fmt.Fprintf(out, "Step:     %s\n", snap.CurrentStep)
	}
	if snap.OutputPath != "" {
		fmt.Fprintf(out, "Output:   %s\n", snap.OutputPath)
	}
	if snap.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", snap.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:  %s\n", snap.CreatedAt.Local().Format(time.RFC3339))
	if snap.CompletedAt != nil {
		fmt.Fprintf(out, "Finished: %s\n", snap.CompletedAt.Local().Format(time.RFC3339))
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.List(cmd.Context(), statusFilter, limit)
			if err != nil {
				return err
			}
			if resp.Count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
				return nil
			}

			rows := make([][]string, 0, resp.Count)
			for _, job := range resp.Jobs {
				step := job.CurrentStep
				if job.ErrorMessage != "" {
					step = job.ErrorMessage
				}
				rows = append(rows, []string{
					job.JobID,
					statusLabel(job.Status),
					fmt.Sprintf("%d%%", job.Progress),
					step,
					job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Job", "Status", "Progress", "Step", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (pending, processing, completed, failed, cancelled)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum jobs to show")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Clear(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d jobs\n", resp.Removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove jobs finished longer ago than this (e.g. 24h)")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			snap, err := client.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s is now %s\n", snap.JobID, statusLabel(snap.Status))
			return nil
		},
	}
}
