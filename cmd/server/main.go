package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/staffdir/staffdir/pkg/logger"

	"github.com/staffdir/staffdir/internal/app"
	"github.com/staffdir/staffdir/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", slog.Any("error", err))
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
