package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "3001",
			AllowedOrigins: []string{"https://rendezvous-csd.netlify.app"},
		},
		Database: DatabaseConfig{URL: "postgres://localhost/rendezvous"},
		Session: SessionConfig{
			Secret:     "secret",
			TTLHours:   1,
			Store:      SessionStoreMemory,
			CookieName: "rendezvous.sid",
		},
		Roles: RoleMarkerConfig{
			AdminMarker:   "admin",
			TAMarker:      "csdp",
			StudentMarker: "csd",
		},
		Upload: UploadConfig{MaxBytes: 1024},
	}
}

// isolate runs the test from an empty directory so no .env file is picked up
func isolate(t *testing.T) {
	t.Helper()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{"development environment", &Config{Server: ServerConfig{AppEnv: "development"}}, true},
		{"debug gin mode", &Config{Server: ServerConfig{GinMode: "debug"}}, true},
		{"production environment", &Config{Server: ServerConfig{AppEnv: "production"}}, false},
		{"release mode", &Config{Server: ServerConfig{GinMode: "release", AppEnv: "production"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"missing database URL", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL is required"},
		{"missing session secret", func(c *Config) { c.Session.Secret = "" }, "SESSION_SECRET is required"},
		{"non-positive TTL", func(c *Config) { c.Session.TTLHours = 0 }, "SESSION_TTL_HOURS must be positive"},
		{"unknown session store", func(c *Config) { c.Session.Store = "redis" }, "SESSION_STORE must be"},
		{"blank role marker", func(c *Config) { c.Roles.TAMarker = "" }, "ROLE_ADMIN_MARKER"},
		{"no CORS origins", func(c *Config) { c.Server.AllowedOrigins = nil }, "ALLOWED_CORS_ORIGINS is required"},
		{"archive without bucket", func(c *Config) { c.Upload.ArchiveEnabled = true }, "UPLOAD_ARCHIVE_BUCKET is required"},
		{"profiling without endpoint", func(c *Config) { c.Profiling.Enabled = true }, "O11Y_PROFILING_ENDPOINT is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestSessionConfig_TTL(t *testing.T) {
	assert.Equal(t, 360*time.Hour, SessionConfig{TTLHours: 360}.TTL())
}

func TestLoad_WithDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/rendezvous")
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Equal(t, []string{
		"https://main--rendezvous-csd.netlify.app",
		"https://rendezvous-csd.netlify.app",
	}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 360, cfg.Session.TTLHours)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.True(t, cfg.Session.CookieSecure, "secure cookies by default in production")
	assert.Equal(t, "admin", cfg.Roles.AdminMarker)
	assert.Equal(t, "csdp", cfg.Roles.TAMarker)
	assert.Equal(t, "csd", cfg.Roles.StudentMarker)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Upload.RequireAdmin)
	assert.False(t, cfg.Upload.ArchiveEnabled)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://db/rendezvous")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SESSION_STORE", "POSTGRES")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("ROLE_TA_MARKER", "tap")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, SessionStorePostgres, cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL())
	assert.Equal(t, "tap", cfg.Roles.TAMarker)
	assert.False(t, cfg.Session.CookieSecure, "insecure cookies outside production")
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_CookieSecureOverride(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://db/rendezvous")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Session.CookieSecure)
}

func TestLoad_ValidationFailure(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
