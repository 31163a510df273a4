package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/anuncia/anuncia/internal/compressor"
	"github.com/anuncia/anuncia/internal/config"
	"github.com/anuncia/anuncia/internal/database"
	"github.com/anuncia/anuncia/internal/filestorage"
	"github.com/anuncia/anuncia/internal/queue"
	"github.com/anuncia/anuncia/internal/telemetry"
	"github.com/anuncia/anuncia/internal/usecase"
)

// Service is the asset pipeline as seen by the HTTP layer.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	Close() error

	IngestAssets(context.Context, usecase.IngestAssetsInput) usecase.BatchResult
	ReplaceOwnerImage(context.Context, usecase.IngestAssetInput) (usecase.Asset, error)
	ListAssets(context.Context, usecase.ListAssetsOption) ([]usecase.Asset, int, error)
	GetAssetByID(context.Context, uuid.UUID) (usecase.Asset, error)
	RetireAsset(context.Context, uuid.UUID) error
	DeleteOwner(context.Context, usecase.OwnerKind, uuid.UUID) error
	RequestStorageAudit(context.Context) (uuid.UUID, error)
	GetJobByID(context.Context, uuid.UUID) (usecase.Job, error)
}

// Pinger reports whether the task broker is reachable.
type Pinger interface {
	Ping(context.Context) *redis.StatusCmd
}

type Server struct {
	server    Service
	validator *validator.Validate
	logger    *slog.Logger
	broker    Pinger
	cfg       config.App
}

func NewServer(sv Service, cfg config.App, logger *slog.Logger, broker Pinger) *Server {
	return &Server{
		server:    sv,
		validator: validator.New(),
		logger:    logger,
		broker:    broker,
		cfg:       cfg,
	}
}

// App owns the HTTP server and everything it has to release on shutdown.
type App struct {
	httpServer        *http.Server
	service           Service
	queueClient       *queue.Client
	redisClient       *redis.Client
	logger            *slog.Logger
	shutdownTelemetry func(context.Context) error
}

func NewApp() (*App, error) {
	cfg := config.Load()
	logger := telemetry.NewLogger(cfg.LogLevel)

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	gormDB, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	repo, err := database.New(gormDB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	fsp := filestorage.NewLocalStorage(cfg.Storage.BaseDir, cfg.Storage.AssetRoot)
	cmp := compressor.New(cfg.Compress.Workers, nil)
	queueClient := queue.NewClient(cfg.Redis.Addr, cfg.Redis.Password, logger)

	sv := usecase.New(repo, fsp, cmp, usecase.Options{
		Compress: compressor.Options{
			TargetBytes:    cfg.Compress.TargetBytes,
			InitialQuality: cfg.Compress.InitialQuality,
			FloorQuality:   cfg.Compress.FloorQuality,
			Step:           cfg.Compress.Step,
		},
		Logger: logger,
		Queue:  queueClient,
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})

	s := NewServer(sv, cfg, logger, redisClient)

	return &App{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      s.RegisterRoutes(),
			IdleTimeout:  time.Minute,
			ReadTimeout:  time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		service:           sv,
		queueClient:       queueClient,
		redisClient:       redisClient,
		logger:            logger,
		shutdownTelemetry: shutdownTelemetry,
	}, nil
}

func (a *App) Addr() string {
	return a.httpServer.Addr
}

func (a *App) ListenAndServe() error {
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, then closes the queue, broker and
// database connections and flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.httpServer.Shutdown(ctx)

	if cerr := a.queueClient.Close(); cerr != nil {
		a.logger.Error("error closing queue client", slog.String("err", cerr.Error()))
	}
	if cerr := a.redisClient.Close(); cerr != nil {
		a.logger.Error("error closing redis client", slog.String("err", cerr.Error()))
	}
	if cerr := a.service.Close(); cerr != nil {
		a.logger.Error("error closing database", slog.String("err", cerr.Error()))
	}
	if cerr := a.shutdownTelemetry(ctx); cerr != nil {
		a.logger.Error("error shutting down telemetry", slog.String("err", cerr.Error()))
	}
	return err
}
