package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/anuncia/anuncia/internal/config"
	"github.com/anuncia/anuncia/internal/database"
	"github.com/anuncia/anuncia/internal/filestorage"
	"github.com/anuncia/anuncia/internal/queue/handlers"
	"github.com/anuncia/anuncia/internal/usecase"
)

// Worker represents a worker application with all its dependencies
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	repo        usecase.Repository
	logger      *slog.Logger
}

// NewWorker creates a fully configured worker with all dependencies
func NewWorker(cfg config.App, logger *slog.Logger) (*Worker, error) {
	logger.Info("initializing worker dependencies")

	gormDB, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	repo, err := database.New(gormDB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	fsp := filestorage.NewLocalStorage(cfg.Storage.BaseDir, cfg.Storage.AssetRoot)

	// Workers only audit, so no compressor and no queue client.
	uc := usecase.New(repo, fsp, nil, usecase.Options{Logger: logger})

	asynqServer := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorContext(ctx, "task failed",
					slog.String("type", task.Type()),
					slog.String("err", err.Error()),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()
	h := handlers.NewHandlers(uc, logger)

	mux.HandleFunc(usecase.JobTypeStorageAudit, h.HandleStorageAudit)
	logger.Info("worker registered handlers", slog.Any("types", []string{usecase.JobTypeStorageAudit}))

	return &Worker{
		asynqServer: asynqServer,
		mux:         mux,
		repo:        repo,
		logger:      logger,
	}, nil
}

func (w *Worker) Start() error {
	w.logger.Info("worker started")
	return w.asynqServer.Start(w.mux)
}

// Stop stops the worker server gracefully
func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	w.asynqServer.Shutdown()

	if err := w.repo.Close(); err != nil {
		w.logger.Error("error closing database", slog.String("err", err.Error()))
	}
}

// Scheduler enqueues periodic tasks.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

func NewScheduler(cfg config.App, logger *slog.Logger) (*Scheduler, error) {
	s := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error("scheduled enqueue failed", slog.String("err", err.Error()))
				return
			}
			logger.Info("scheduled task enqueued",
				slog.String("task_id", info.ID),
				slog.String("type", info.Type),
			)
		},
	})

	entryID, err := s.Register(cfg.AuditCron, asynq.NewTask(usecase.JobTypeStorageAudit, nil), asynq.Queue("low"))
	if err != nil {
		return nil, fmt.Errorf("failed to register storage audit (%q): %w", cfg.AuditCron, err)
	}
	logger.Info("scheduler registered task",
		slog.String("type", usecase.JobTypeStorageAudit),
		slog.String("cron", cfg.AuditCron),
		slog.String("entry_id", entryID),
	)

	return &Scheduler{scheduler: s, logger: logger}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.scheduler.Shutdown()
}

func redisOpt(cfg config.App) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	}
}
