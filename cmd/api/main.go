package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"price-tracker/internal/bootstrap"
	infraconfig "price-tracker/internal/infrastructure/config"
	"price-tracker/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg, err := bootstrap.ProvideConfig()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger, closeLog, err := bootstrap.ProvideLogger(cfg)
	if err != nil {
		logx.L().Fatal("init logger", zap.Error(err))
	}
	defer closeLog()

	addr := ":" + cfg.APIPort
	server := &http.Server{
		Addr:              addr,
		Handler:           bootstrap.BuildAPI(cfg),
		ReadHeaderTimeout: infraconfig.DefaultReadHeaderTimeout,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("snapshot", cfg.SnapshotPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
