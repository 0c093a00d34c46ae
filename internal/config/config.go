// Пакет config — загрузка и валидация конфигурации FMS backend
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Допустимые backend'ы хранилища файлов.
const (
	StorageBackendS3    = "s3"
	StorageBackendGCS   = "gcs"
	StorageBackendLocal = "local"
)

// Config содержит все параметры конфигурации FMS backend.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- PostgreSQL (Record Store) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Хранилище файлов (Blob Store) ---

	// Backend: s3, gcs, local
	StorageBackend string
	// Bucket (по умолчанию uploads)
	StorageBucket string
	// S3-совместимый endpoint (Supabase Storage, MinIO). Пусто — AWS S3.
	StorageEndpoint string
	// Регион S3
	StorageRegion string
	// Ключ доступа к хранилищу
	StorageAccessKey string
	// Секрет ключа доступа
	StorageSecretKey string
	// Базовый URL для публичных ссылок на файлы (опционально)
	StoragePublicURL string
	// Директория данных для local backend
	StorageDataDir string
	// Путь к JSON-ключу сервисного аккаунта GCS (опционально)
	GCSCredentialsFile string
	// Проект GCP (опционально)
	GCSProject string

	// --- Загрузка файлов ---

	// Максимальный размер multipart-запроса в байтах
	MaxUploadSize int64
	// Максимальное число одновременных загрузок
	MaxConcurrentUploads int
	// Разрешённые CORS origins
	CORSAllowedOrigins []string

	// --- Жизненный цикл элементов ---

	// Компенсирующие действия при частичных сбоях create/update
	CompensationEnabled bool
	// Размер LRU-кэша записей (0 — кэш отключён)
	CacheSize int
	// TTL записи в кэше
	CacheTTL time.Duration

	// --- topologymetrics ---

	DephealthGroup          string
	DephealthCheckInterval  time.Duration
	// Health path HTTP endpoint'а Blob Store (например /minio/health/live).
	// Пусто — Blob Store не мониторится через topologymetrics.
	DephealthBlobHealthPath string

	// --- Front-end ---

	// Директория собранного SPA (опционально)
	StaticDir string
	// URL-префикс SPA
	StaticPath string

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// FMS_PORT — порт HTTP-сервера (по умолчанию 3002)
	cfg.Port, err = getEnvInt("FMS_PORT", 3002)
	if err != nil {
		return nil, fmt.Errorf("FMS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FMS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FMS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FMS_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("FMS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FMS_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("FMS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FMS_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("FMS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FMS_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("FMS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FMS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("FMS_DB_HOST"); err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("FMS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FMS_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("FMS_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("FMS_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("FMS_DB_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("FMS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("FMS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Хранилище файлов ---

	if err := loadStorage(cfg); err != nil {
		return nil, err
	}

	// --- Загрузка файлов ---

	maxUpload, err := getEnvInt("FMS_MAX_UPLOAD_SIZE", 50<<20)
	if err != nil {
		return nil, fmt.Errorf("FMS_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("FMS_MAX_UPLOAD_SIZE: значение должно быть > 0")
	}
	cfg.MaxUploadSize = int64(maxUpload)

	cfg.MaxConcurrentUploads, err = getEnvInt("FMS_MAX_CONCURRENT_UPLOADS", 64)
	if err != nil {
		return nil, fmt.Errorf("FMS_MAX_CONCURRENT_UPLOADS: %w", err)
	}
	if cfg.MaxConcurrentUploads < 1 {
		return nil, fmt.Errorf("FMS_MAX_CONCURRENT_UPLOADS: значение должно быть >= 1")
	}

	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("FMS_CORS_ALLOWED_ORIGINS", "*"))

	// --- Жизненный цикл элементов ---

	cfg.CompensationEnabled, err = getEnvBool("FMS_COMPENSATION_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("FMS_COMPENSATION_ENABLED: %w", err)
	}

	cfg.CacheSize, err = getEnvInt("FMS_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("FMS_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("FMS_CACHE_SIZE: значение не может быть отрицательным")
	}

	cfg.CacheTTL, err = getEnvDurationFallback("FMS_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FMS_CACHE_TTL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("FMS_DEPHEALTH_GROUP", "fms")
	cfg.DephealthCheckInterval, err = getEnvDurationFallback("FMS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FMS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthBlobHealthPath = getEnvDefault("FMS_DEPHEALTH_BLOB_HEALTH_PATH", "")

	// --- Front-end ---

	cfg.StaticDir = getEnvDefault("FMS_STATIC_DIR", "")
	cfg.StaticPath = normalizePrefix(getEnvDefault("FMS_STATIC_PATH", "/fms-web-app/"))

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("FMS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FMS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadStorage загружает параметры Blob Store. Набор обязательных
// переменных зависит от выбранного backend.
func loadStorage(cfg *Config) error {
	var err error

	cfg.StorageBackend = strings.ToLower(getEnvDefault("FMS_STORAGE_BACKEND", StorageBackendS3))
	switch cfg.StorageBackend {
	case StorageBackendS3, StorageBackendGCS, StorageBackendLocal:
	default:
		return fmt.Errorf("FMS_STORAGE_BACKEND: недопустимое значение %q, допустимые: s3, gcs, local", cfg.StorageBackend)
	}

	cfg.StorageBucket = getEnvDefault("FMS_STORAGE_BUCKET", "uploads")
	cfg.StorageEndpoint = strings.TrimRight(getEnvDefault("FMS_STORAGE_ENDPOINT", ""), "/")
	cfg.StorageRegion = getEnvDefault("FMS_STORAGE_REGION", "us-east-1")
	cfg.StoragePublicURL = strings.TrimRight(getEnvDefault("FMS_STORAGE_PUBLIC_URL", ""), "/")
	cfg.StorageDataDir = getEnvDefault("FMS_STORAGE_DATA_DIR", "./data")
	cfg.GCSCredentialsFile = getEnvDefault("FMS_GCS_CREDENTIALS_FILE", "")
	cfg.GCSProject = getEnvDefault("FMS_GCS_PROJECT", "")

	for _, u := range []struct{ key, val string }{
		{"FMS_STORAGE_ENDPOINT", cfg.StorageEndpoint},
		{"FMS_STORAGE_PUBLIC_URL", cfg.StoragePublicURL},
	} {
		if u.val == "" {
			continue
		}
		if parsed, perr := url.Parse(u.val); perr != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s: некорректный URL %q", u.key, u.val)
		}
	}

	if cfg.StorageBackend == StorageBackendS3 {
		if cfg.StorageAccessKey, err = getEnvRequired("FMS_STORAGE_ACCESS_KEY"); err != nil {
			return err
		}
		if cfg.StorageSecretKey, err = getEnvRequired("FMS_STORAGE_SECRET_KEY"); err != nil {
			return err
		}
	}

	if cfg.StorageBackend == StorageBackendLocal && cfg.StoragePublicURL == "" {
		// Локальный backend раздаёт файлы сам — ссылки строятся относительно сервера
		cfg.StoragePublicURL = fmt.Sprintf("http://localhost:%d/public", cfg.Port)
	}

	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL без пароля.
// Используется для лейблов topologymetrics.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationFallback возвращает time.Duration из переменной окружения.
// Если задана — парсится и валидируется (> 0).
func getEnvDurationFallback(key string, fallbackVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallbackVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// normalizePrefix приводит URL-префикс к виду /prefix/.
func normalizePrefix(p string) string {
	p = "/" + strings.Trim(p, "/")
	if p != "/" {
		p += "/"
	}
	return p
}
