package config

// Header constants.
const (
	HEADER_KEY_X_REQUEST_ID = "X-Request-Id"
	HEADER_KEY_X_CLIENT_ID  = "X-Client-Id"
)

const (
	ENV_KEY_APP_ENV   = "APP_ENV"
	ENV_KEY_PORT      = "PORT"
	ENV_KEY_LOG_LEVEL = "LOG_LEVEL"

	ENV_KEY_DB_DATABASE             = "DB_DATABASE"
	ENV_KEY_DB_PASSWORD             = "DB_PASSWORD"
	ENV_KEY_DB_USER                 = "DB_USER"
	ENV_KEY_DB_PORT                 = "DB_PORT"
	ENV_KEY_DB_HOST                 = "DB_HOST"
	ENV_KEY_DB_MAX_OPEN_CONNECTIONS = "DB_MAX_OPEN_CONNECTIONS"

	ENV_KEY_STORAGE_BASE_DIR = "STORAGE_BASE_DIR"
	ENV_KEY_ASSET_ROOT       = "ASSET_ROOT"
	ENV_KEY_UPLOAD_TEMP_DIR  = "UPLOAD_TEMP_DIR"
	ENV_KEY_MAX_UPLOAD_BYTES = "MAX_UPLOAD_BYTES"

	ENV_KEY_COMPRESS_TARGET_BYTES    = "COMPRESS_TARGET_BYTES"
	ENV_KEY_COMPRESS_INITIAL_QUALITY = "COMPRESS_INITIAL_QUALITY"
	ENV_KEY_COMPRESS_FLOOR_QUALITY   = "COMPRESS_FLOOR_QUALITY"
	ENV_KEY_COMPRESS_STEP            = "COMPRESS_STEP"
	ENV_KEY_COMPRESS_WORKERS         = "COMPRESS_WORKERS"

	ENV_KEY_UPLOAD_RATE_LIMIT = "UPLOAD_RATE_LIMIT"

	ENV_KEY_REDIS_HOST         = "REDIS_HOST"
	ENV_KEY_REDIS_PORT         = "REDIS_PORT"
	ENV_KEY_REDIS_PASSWORD     = "REDIS_PASSWORD"
	ENV_KEY_WORKER_CONCURRENCY = "WORKER_CONCURRENCY"
	ENV_KEY_AUDIT_CRON         = "AUDIT_CRON"

	ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT = "OTEL_EXPORTER_OTLP_ENDPOINT"
	ENV_KEY_OTEL_SERVICE_NAME           = "OTEL_SERVICE_NAME"
)

// MAX_UPLOAD_FILES caps the files accepted by one upload request.
const MAX_UPLOAD_FILES = 10
