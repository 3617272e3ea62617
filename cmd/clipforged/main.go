package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/jobs"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/services/ffmpeg"
	"clipforge/internal/services/ffprobe"
	"clipforge/internal/services/whisper"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, resolvedPath, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger.Info("clipforged starting",
		logging.String("config", resolvedPath),
		logging.String("version", api.Version))

	// Only one daemon may own the work directories at a time.
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "clipforged.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return errors.New("another clipforged instance is already running")
	}
	defer lock.Unlock() //nolint:errcheck

	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	prober := ffprobe.NewService(cfg.Encoder.ProbeBinary, time.Duration(cfg.Timeouts.ProbeSeconds)*time.Second)
	transcriber := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.Model, time.Duration(cfg.Timeouts.TranscribeSeconds)*time.Second)
	encoder := ffmpeg.NewService(cfg.Encoder.Binary, time.Duration(cfg.Timeouts.EncodeSeconds)*time.Second)

	runner := pipeline.NewRunner(cfg, store, prober, transcriber, encoder, logger)
	scheduler := jobs.NewScheduler(store, runner, cfg, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := api.NewServer(cfg.Paths.APIBind, scheduler, logger)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.ListenAndServe() }()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("clipforged shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown", logging.Error(err))
	}
	return nil
}
