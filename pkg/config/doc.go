// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	COVERDESK_HOST="0.0.0.0"
//	COVERDESK_PORT="8080"
//	COVERDESK_HEALTH_PORT="9090"
//	COVERDESK_READ_TIMEOUT="15s"
//	COVERDESK_WRITE_TIMEOUT="15s"
//
// Session settings:
//
//	COVERDESK_SESSION_STORAGE="memory"  # memory, redis
//	COVERDESK_REDIS_URL="localhost:6379"
//	COVERDESK_SESSION_TTL="24h"
//	COVERDESK_SESSION_REFRESH_THRESHOLD="5m"
//	COVERDESK_KEEPALIVE_INTERVAL="0"  # disabled when zero
//
// Directory settings:
//
//	COVERDESK_SQLITE_PATH="coverdesk.db"
//	COVERDESK_SEED_ACCOUNTS="true"
//
// Access settings:
//
//	COVERDESK_DECISION_CACHE_TTL="5m"
//
// Observability settings:
//
//	COVERDESK_LOG_LEVEL="info"  # debug, info, warn, error
//	COVERDESK_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Session storage: %s\n", cfg.Session.Storage)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/session: Uses session configuration
//   - pkg/observability: Uses observability configuration
package config
