package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/anuncia/anuncia/internal/config"
)

// implements usecase.Repository
type service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to postgres through pgx and wraps the pool in gorm with the
// slog query logger and OpenTelemetry tracing.
func Open(cfg config.App, logger *slog.Logger) (*gorm.DB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if cfg.DB.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConnections)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{
		Logger:                 NewSlogGormLogger(logger, cfg.LogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm database connection: %w", err)
	}

	if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to register tracing plugin: %w", err)
	}

	return gormDB, nil
}

func New(db *gorm.DB, logger *slog.Logger) (*service, error) {
	if db == nil {
		return nil, errors.New("database: nil gorm handle")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{db: db, logger: logger}, nil
}

// Migrate creates or updates the asset, owner and job tables.
func (s *service) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}
	return db.AutoMigrate(
		Post{},
		City{},
		Category{},
		Type{},
		Asset{},
		Job{},
	)
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	db, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	if err := db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.logger.ErrorContext(ctx, "database ping failed", slog.String("err", err.Error()))
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the underlying connection pool.
func (s *service) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Info("disconnected from database")
	return db.Close()
}
