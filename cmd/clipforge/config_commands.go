package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage clipforge configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the annotated sample configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *ctx.configFlag
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if _, err := os.Stat(path); err == nil {
				if !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "output_dir = %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "work_dir = %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "log_dir = %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "api_bind = %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "job_workers = %d\n", cfg.Workers.JobWorkers)
			fmt.Fprintf(out, "queue_depth = %d\n", cfg.Workers.QueueDepth)
			fmt.Fprintf(out, "probe_workers = %d\n", cfg.Workers.ProbeWorkers)
			fmt.Fprintf(out, "transcribe_workers = %d\n", cfg.Workers.TranscribeWorkers)
			fmt.Fprintf(out, "subtitles_enabled = %t\n", cfg.Subtitles.Enabled)
			fmt.Fprintf(out, "encoder = %s (preset %s, crf %d)\n", cfg.Encoder.Binary, cfg.Encoder.Preset, cfg.Encoder.CRF)
			fmt.Fprintf(out, "whisper = %s (model %s)\n", cfg.Whisper.Binary, cfg.Whisper.Model)
			fmt.Fprintf(out, "log_format = %s\n", cfg.LogFormat)
			fmt.Fprintf(out, "log_level = %s\n", cfg.LogLevel)
			return nil
		},
	}
}
