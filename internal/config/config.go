package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"
)

type Config struct {
	Env                          string
	HTTPPort                     string
	CORSAllowedOrigins           []string
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	JWTSecret           string
	JWTIssuer           string
	JWTTTL              time.Duration
	BootstrapAdminEmail string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	AdminListCacheEnabled bool
	AdminListCacheTTL     time.Duration

	StorageEnabled bool
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                 env,
		HTTPPort:            getEnv("HTTP_PORT", "5000"),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "movies"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTIssuer:           getEnv("JWT_ISSUER", "movie-catalog-backend"),
		BootstrapAdminEmail: strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "movies"),

		AdminListCacheEnabled: getEnvBool("ADMIN_LIST_CACHE_ENABLED", true),

		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "avatars"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "movie-catalog-backend"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.JWTTTL, "JWT_TTL", "24h"},
		{&cfg.AdminListCacheTTL, "ADMIN_LIST_CACHE_TTL", "30s"},
		{&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", "20s"},
		{&cfg.ShutdownHTTPDrainTimeout, "SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s"},
		{&cfg.ShutdownObservabilityTimeout, "SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s"},
		{&cfg.ReadinessProbeTimeout, "READINESS_PROBE_TIMEOUT", "1s"},
		{&cfg.ServerStartGracePeriod, "SERVER_START_GRACE_PERIOD", "2s"},
		{&cfg.OTELMetricsExportInterval, "OTEL_METRICS_EXPORT_INTERVAL", "10s"},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for gorm store drivers"))
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_DATABASE is required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, mongo (got %q)", c.StoreDriver))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 chars"))
	}
	if c.JWTTTL <= 0 || c.JWTTTL > 30*24*time.Hour {
		errs = append(errs, errors.New("JWT_TTL must be between 1s and 30d"))
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_PER_MIN must be > 0"))
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT_PER_MIN must be > 0"))
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when REDIS_ENABLED=true"))
	}
	if c.AdminListCacheEnabled && c.AdminListCacheTTL <= 0 {
		errs = append(errs, errors.New("ADMIN_LIST_CACHE_TTL must be > 0"))
	}
	if c.StorageEnabled {
		if c.MinIOEndpoint == "" || c.MinIOBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required when STORAGE_ENABLED=true"))
		}
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_ENABLED=true"))
		}
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	if c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, errors.New("SHUTDOWN_HTTP_DRAIN_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT"))
	}
	if c.ShutdownObservabilityTimeout <= 0 || c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, errors.New("SHUTDOWN_OBSERVABILITY_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT"))
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, errors.New("READINESS_PROBE_TIMEOUT must be > 0"))
	}
	if c.ServerStartGracePeriod < 0 {
		errs = append(errs, errors.New("SERVER_START_GRACE_PERIOD must be >= 0"))
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled"))
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1"))
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, errors.New("OTEL_METRICS_EXPORT_INTERVAL must be > 0"))
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, errors.New("OTEL_LOG_LEVEL must be one of debug, info, warn, error"))
	}
	if isProdLikeEnv(c.Env) && c.StoreDriver == StoreDriverSQLite {
		errs = append(errs, errors.New("STORE_DRIVER=sqlite is not allowed in production"))
	}
	return errors.Join(errs...)
}

// UsesGorm reports whether the configured store is backed by gorm.
func (c *Config) UsesGorm() bool {
	return c.StoreDriver == StoreDriverPostgres || c.StoreDriver == StoreDriverSQLite
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
