package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

type App struct {
	Env      string
	Port     int
	LogLevel slog.Level

	DB struct {
		Host               string
		Port               string
		User               string
		Password           string
		Database           string
		MaxOpenConnections int
	}

	Storage struct {
		BaseDir        string
		AssetRoot      string
		TempDir        string
		MaxUploadBytes int64
	}

	Compress struct {
		TargetBytes    int64
		InitialQuality int
		FloorQuality   int
		Step           int
		Workers        int
	}

	// UploadRateLimit is the number of upload requests per second allowed
	// per client IP. Zero disables limiting.
	UploadRateLimit float64

	Redis struct {
		Addr     string
		Password string
	}
	WorkerConcurrency int
	AuditCron         string

	OTel struct {
		Endpoint    string
		ServiceName string
	}
}

func (a App) IsLocal() bool {
	return a.Env == "local"
}

// Load reads the process environment (and .env, if present) into App,
// falling back to defaults for anything unset or unparsable.
func Load() App {
	var a App

	a.Env = os.Getenv(ENV_KEY_APP_ENV)
	a.Port = getInt(ENV_KEY_PORT, 8080)
	a.LogLevel = ParseLogLevel(os.Getenv(ENV_KEY_LOG_LEVEL))

	a.DB.Host = os.Getenv(ENV_KEY_DB_HOST)
	a.DB.Port = os.Getenv(ENV_KEY_DB_PORT)
	a.DB.User = os.Getenv(ENV_KEY_DB_USER)
	a.DB.Password = os.Getenv(ENV_KEY_DB_PASSWORD)
	a.DB.Database = os.Getenv(ENV_KEY_DB_DATABASE)
	a.DB.MaxOpenConnections = getInt(ENV_KEY_DB_MAX_OPEN_CONNECTIONS, 0)

	a.Storage.BaseDir = getString(ENV_KEY_STORAGE_BASE_DIR, ".")
	a.Storage.AssetRoot = getString(ENV_KEY_ASSET_ROOT, "uploads")
	a.Storage.TempDir = getString(ENV_KEY_UPLOAD_TEMP_DIR, os.TempDir())
	a.Storage.MaxUploadBytes = int64(getInt(ENV_KEY_MAX_UPLOAD_BYTES, 50*1024*1024))

	a.Compress.TargetBytes = int64(getInt(ENV_KEY_COMPRESS_TARGET_BYTES, 128*1024))
	a.Compress.InitialQuality = getInt(ENV_KEY_COMPRESS_INITIAL_QUALITY, 85)
	a.Compress.FloorQuality = getInt(ENV_KEY_COMPRESS_FLOOR_QUALITY, 10)
	a.Compress.Step = getInt(ENV_KEY_COMPRESS_STEP, 10)
	a.Compress.Workers = getInt(ENV_KEY_COMPRESS_WORKERS, runtime.NumCPU())

	a.UploadRateLimit = getFloat(ENV_KEY_UPLOAD_RATE_LIMIT, 5)

	a.Redis.Addr = getString(ENV_KEY_REDIS_HOST, "localhost") + ":" + getString(ENV_KEY_REDIS_PORT, "6379")
	a.Redis.Password = os.Getenv(ENV_KEY_REDIS_PASSWORD)
	a.WorkerConcurrency = getInt(ENV_KEY_WORKER_CONCURRENCY, 2)
	a.AuditCron = getString(ENV_KEY_AUDIT_CRON, "@daily")

	a.OTel.Endpoint = os.Getenv(ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT)
	a.OTel.ServiceName = getString(ENV_KEY_OTEL_SERVICE_NAME, "anuncia")

	return a
}

func ParseLogLevel(lvl string) slog.Level {
	switch lvl {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}
