// Package config holds the directory service configuration, loaded
// from the environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/staffdir/staffdir/pkg/config"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"directory"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// StoreBackend selects the key-value store: sqlite, redis or memory.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"directory.db"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// LoginDelay simulates the latency of an upstream credential check.
	LoginDelay time.Duration `env:"LOGIN_DELAY" envDefault:"0"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP port %d", c.HTTPPort)
	}
	if c.IsProduction() && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
