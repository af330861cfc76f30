package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"price-tracker/internal/application"
	"price-tracker/internal/bootstrap"
	"price-tracker/internal/report"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitLocked = 2
)

func init() { _ = godotenv.Load() }

func main() { os.Exit(run()) }

func run() int {
	cfg, err := bootstrap.ProvideConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return exitFailed
	}
	log, closeLog, err := bootstrap.ProvideLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker, cleanup, err := bootstrap.BuildTracker(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap tracker", zap.Error(err))
		return exitFailed
	}
	defer cleanup()

	readings, err := tracker.Run(ctx)
	if len(readings) > 0 {
		fmt.Print(report.Render(readings))
	}
	switch {
	case errors.Is(err, application.ErrRunInProgress):
		fmt.Fprintln(os.Stderr, "another run is in progress")
		return exitLocked
	case err != nil:
		log.Error("run failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "run failed:", err)
		return exitFailed
	}
	log.Info("outputs written",
		zap.String("snapshot", cfg.SnapshotPath),
		zap.String("history", cfg.HistoryPath))
	return exitOK
}
