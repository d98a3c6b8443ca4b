package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coverdesk/coverdesk/pkg/observability"
	"github.com/coverdesk/coverdesk/pkg/session"
)

// Storage backends for session state.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Session configuration
	Session SessionConfig

	// Directory (user database) configuration
	Directory DirectoryConfig

	// Access evaluator configuration
	Access AccessConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	// Storage is the session backend, memory or redis.
	Storage string

	// RedisURL is the redis address when Storage is redis.
	RedisURL      string
	RedisPassword string
	RedisDB       int

	TTL              time.Duration
	RefreshThreshold time.Duration

	// KeepaliveInterval schedules background session extension.
	// Zero disables the keepalive job.
	KeepaliveInterval time.Duration
}

// DirectoryConfig holds user directory configuration
type DirectoryConfig struct {
	// SQLitePath is the path to the sqlite database file.
	// ":memory:" keeps the directory in process.
	SQLitePath string

	// Seed populates default accounts on startup when the
	// directory is empty.
	Seed bool
}

// AccessConfig holds permission evaluator configuration
type AccessConfig struct {
	// CacheTTL bounds how long a cached decision may be served.
	CacheTTL time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Session:       loadSessionConfig(),
		Directory:     loadDirectoryConfig(),
		Access:        loadAccessConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("COVERDESK_HOST", "0.0.0.0"),
		Port:            getEnv("COVERDESK_PORT", "8080"),
		ReadTimeout:     getEnvDuration("COVERDESK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("COVERDESK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("COVERDESK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("COVERDESK_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("COVERDESK_HEALTH_PORT", "9090"),
	}
}

// loadSessionConfig loads session configuration from environment
func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Storage:           strings.ToLower(getEnv("COVERDESK_SESSION_STORAGE", StorageMemory)),
		RedisURL:          getEnv("COVERDESK_REDIS_URL", "localhost:6379"),
		RedisPassword:     getEnv("COVERDESK_REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("COVERDESK_REDIS_DB", 0),
		TTL:               getEnvDuration("COVERDESK_SESSION_TTL", session.DefaultTTL),
		RefreshThreshold:  getEnvDuration("COVERDESK_SESSION_REFRESH_THRESHOLD", session.DefaultRefreshThreshold),
		KeepaliveInterval: getEnvDuration("COVERDESK_KEEPALIVE_INTERVAL", 0),
	}
}

// loadDirectoryConfig loads directory configuration from environment
func loadDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		SQLitePath: getEnv("COVERDESK_SQLITE_PATH", "coverdesk.db"),
		Seed:       getEnvBool("COVERDESK_SEED_ACCOUNTS", true),
	}
}

// loadAccessConfig loads access evaluator configuration from environment
func loadAccessConfig() AccessConfig {
	return AccessConfig{
		CacheTTL: getEnvDuration("COVERDESK_DECISION_CACHE_TTL", 5*time.Minute),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("COVERDESK_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("COVERDESK_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Session.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session storage")
		}
	default:
		return fmt.Errorf("invalid session storage: %s (must be memory or redis)", c.Session.Storage)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Session.RefreshThreshold < 0 {
		return fmt.Errorf("session refresh threshold must not be negative")
	}
	if c.Session.RefreshThreshold >= c.Session.TTL {
		return fmt.Errorf("session refresh threshold must be shorter than the TTL")
	}

	if c.Directory.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required")
	}

	if c.Access.CacheTTL < 0 {
		return fmt.Errorf("decision cache TTL must not be negative")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
