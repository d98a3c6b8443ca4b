package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			assert.Equal(t, tt.want, getEnv(tt.key, tt.defaultValue))
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "returns true for 'true'", envValue: "true", want: true},
		{name: "returns true for '1'", envValue: "1", want: true},
		{name: "returns false for 'false'", defaultValue: true, envValue: "false", want: false},
		{name: "returns default when not set", defaultValue: true, envValue: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			}

			assert.Equal(t, tt.want, getEnvBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{name: "parses duration", envValue: "30m", want: 30 * time.Minute},
		{name: "returns default when not set", defaultValue: time.Hour, want: time.Hour},
		{name: "returns default on parse failure", defaultValue: time.Hour, envValue: "soon", want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			}

			assert.Equal(t, tt.want, getEnvDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

// TestLoadConfigDefaults verifies the defaults form a valid configuration
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, StorageMemory, cfg.Session.Storage)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshThreshold)
	assert.Equal(t, "coverdesk.db", cfg.Directory.SQLitePath)
	assert.True(t, cfg.Directory.Seed)
}

// TestLoadConfigFromEnvironment verifies overrides are picked up
func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("COVERDESK_PORT", "9000")
	t.Setenv("COVERDESK_SESSION_STORAGE", "redis")
	t.Setenv("COVERDESK_REDIS_URL", "redis.internal:6379")
	t.Setenv("COVERDESK_SESSION_TTL", "8h")
	t.Setenv("COVERDESK_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, StorageRedis, cfg.Session.Storage)
	assert.Equal(t, "redis.internal:6379", cfg.Session.RedisURL)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", HealthPort: "9090"},
			Session: SessionConfig{
				Storage:          StorageMemory,
				TTL:              24 * time.Hour,
				RefreshThreshold: 5 * time.Minute,
			},
			Directory: DirectoryConfig{SQLitePath: ":memory:"},
			Access:    AccessConfig{CacheTTL: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "port collision",
			mutate:  func(c *Config) { c.Server.HealthPort = "8080" },
			wantErr: "must be different",
		},
		{
			name:    "unknown session storage",
			mutate:  func(c *Config) { c.Session.Storage = "etcd" },
			wantErr: "invalid session storage",
		},
		{
			name: "redis storage requires URL",
			mutate: func(c *Config) {
				c.Session.Storage = StorageRedis
				c.Session.RedisURL = ""
			},
			wantErr: "redis URL is required",
		},
		{
			name:    "zero TTL",
			mutate:  func(c *Config) { c.Session.TTL = 0 },
			wantErr: "TTL must be positive",
		},
		{
			name:    "refresh threshold beyond TTL",
			mutate:  func(c *Config) { c.Session.RefreshThreshold = 48 * time.Hour },
			wantErr: "shorter than the TTL",
		},
		{
			name:    "missing sqlite path",
			mutate:  func(c *Config) { c.Directory.SQLitePath = "" },
			wantErr: "sqlite path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
