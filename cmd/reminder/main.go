package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaharge/library-circulation/internal/app"
	"github.com/shaharge/library-circulation/internal/config"
	"github.com/shaharge/library-circulation/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting reminder daemon",
		slog.String("env", cfg.Env),
		slog.Duration("check_interval", cfg.Reminder.CheckInterval))

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// первый прогон сразу, дальше по расписанию
	a.Reminder.Run()

	ticker := time.NewTicker(cfg.Reminder.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.Reminder.Run()
		case <-ctx.Done():
			logger.Info("shutting down reminder daemon")
			return
		}
	}
}
