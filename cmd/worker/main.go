package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anuncia/anuncia/internal/config"
	"github.com/anuncia/anuncia/internal/queue"
	"github.com/anuncia/anuncia/internal/telemetry"
)

func main() {
	var mode = flag.String("mode", "worker", "Mode to run: 'worker', 'scheduler'")
	flag.Parse()

	cfg := config.Load()
	logger := telemetry.NewLogger(cfg.LogLevel)

	if *mode != "worker" && *mode != "scheduler" {
		logger.Error("Invalid mode. Use 'worker' or 'scheduler'", slog.String("mode", *mode))
		os.Exit(2)
	}

	shutdownTelemetry, err := telemetry.Setup(context.Background(), telemetry.Config{
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName + "-" + *mode,
	})
	if err != nil {
		logger.Error("Failed to set up telemetry", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("Telemetry shutdown error", slog.String("err", err.Error()))
		}
	}()

	switch *mode {
	case "worker":
		runWorker(cfg, logger)
	case "scheduler":
		runScheduler(cfg, logger)
	}
}

func runWorker(cfg config.App, logger *slog.Logger) {
	logger.Info("Starting in WORKER mode...")

	worker, err := queue.NewWorker(cfg, logger)
	if err != nil {
		logger.Error("Failed to create worker", slog.String("err", err.Error()))
		return
	}

	// Start worker in goroutine
	go func() {
		logger.Info("Starting Asynq worker...")
		if err := worker.Start(); err != nil {
			logger.Error("Worker error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	worker.Stop()
	logger.Info("Worker exited properly")
}

func runScheduler(cfg config.App, logger *slog.Logger) {
	logger.Info("Starting in SCHEDULER mode...")

	scheduler, err := queue.NewScheduler(cfg, logger)
	if err != nil {
		logger.Error("Failed to create scheduler", slog.String("err", err.Error()))
		return
	}

	// Start scheduler in goroutine
	go func() {
		logger.Info("Starting Asynq scheduler...")
		if err := scheduler.Start(); err != nil {
			logger.Error("Scheduler error", slog.String("err", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	scheduler.Stop()
	logger.Info("Scheduler exited properly")
}
