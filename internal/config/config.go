package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Cesar4422/proyecto-mau/pkg/config"
)

// Config holds all configuration for the warehouse service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"WAREHOUSE_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"warehouse"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"warehouse"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"warehouse"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis backs the allocation lock, the active policy cache and the
	// consumer idempotency store. When disabled those fall back to
	// in-process implementations.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Allocation
	AllocationLockTTLSecs  int     `env:"ALLOCATION_LOCK_TTL_SECONDS" envDefault:"30"`
	AllocationLockWaitSecs int     `env:"ALLOCATION_LOCK_WAIT_SECONDS" envDefault:"5"`
	PolicyCacheTTLSecs     int     `env:"POLICY_CACHE_TTL_SECONDS" envDefault:"30"`
	AllocationRateLimitRPS float64 `env:"ALLOCATION_RATE_LIMIT_RPS" envDefault:"2"`
	AllocationRateBurst    int     `env:"ALLOCATION_RATE_LIMIT_BURST" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load warehouse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.RedisEnabled && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.AllocationLockTTLSecs <= 0 {
		return fmt.Errorf("ALLOCATION_LOCK_TTL_SECONDS must be > 0, got %d", c.AllocationLockTTLSecs)
	}
	if c.AllocationLockWaitSecs < 0 {
		return fmt.Errorf("ALLOCATION_LOCK_WAIT_SECONDS must be >= 0, got %d", c.AllocationLockWaitSecs)
	}
	if c.PolicyCacheTTLSecs < 0 {
		return fmt.Errorf("POLICY_CACHE_TTL_SECONDS must be >= 0, got %d", c.PolicyCacheTTLSecs)
	}
	if c.AllocationRateLimitRPS <= 0 || c.AllocationRateBurst < 1 {
		return fmt.Errorf("allocation rate limit must be positive, got %.2f rps burst %d",
			c.AllocationRateLimitRPS, c.AllocationRateBurst)
	}
	return nil
}

// LockTTL is how long an allocation lock is held before it expires.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.AllocationLockTTLSecs) * time.Second
}

// LockWait is how long a run waits for a busy product before giving up.
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.AllocationLockWaitSecs) * time.Second
}

// PolicyCacheTTL is the lifetime of the cached active policy. Zero disables
// the cache.
func (c *Config) PolicyCacheTTL() time.Duration {
	return time.Duration(c.PolicyCacheTTLSecs) * time.Second
}
