package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Session       SessionConfig
	Roles         RoleMarkerConfig
	Upload        UploadConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string
}

type SessionConfig struct {
	Secret       string
	Issuer       string
	TTLHours     int
	Store        string // "memory" or "postgres"
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// TTL returns the session lifetime
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// RoleMarkerConfig holds the email substrings that select a role.
// Precedence is fixed: admin, then teaching assistant, then student.
type RoleMarkerConfig struct {
	AdminMarker   string
	TAMarker      string
	StudentMarker string
}

type UploadConfig struct {
	MaxBytes       int64
	RequireAdmin   bool // ingestion endpoints require an administrator session
	ArchiveEnabled bool
	Archive        ArchiveConfig
}

type ArchiveConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
	Prefix          string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "3001")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://main--rendezvous-csd.netlify.app,https://rendezvous-csd.netlify.app")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)

	// Session defaults
	v.SetDefault("SESSION_ISSUER", "rendezvous-api")
	v.SetDefault("SESSION_TTL_HOURS", 360) // 15 days
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_COOKIE_NAME", "rendezvous.sid")
	v.SetDefault("COOKIE_DOMAIN", "")

	// Role markers
	v.SetDefault("ROLE_ADMIN_MARKER", "admin")
	v.SetDefault("ROLE_TA_MARKER", "csdp")
	v.SetDefault("ROLE_STUDENT_MARKER", "csd")

	// Uploads
	v.SetDefault("UPLOAD_MAX_BYTES", 10*1024*1024)
	v.SetDefault("UPLOAD_REQUIRE_ADMIN", false)
	v.SetDefault("UPLOAD_ARCHIVE_ENABLED", false)
	v.SetDefault("UPLOAD_ARCHIVE_PREFIX", "imports")

	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "rendezvous-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "rendezvous-csd")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "rendezvous-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	appEnv := v.GetString("APP_ENV")

	// Secure cookies follow production mode unless set explicitly
	cookieSecure := appEnv == "production"
	if v.IsSet("COOKIE_SECURE") {
		cookieSecure = v.GetBool("COOKIE_SECURE")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         appEnv,
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:        v.GetString("DATABASE_URL"),
			MaxConns:   v.GetInt32("DB_MAX_CONNS"),
			MinConns:   v.GetInt32("DB_MIN_CONNS"),
			CACertPath: v.GetString("DATABASE_CA_CERT"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("SESSION_SECRET"),
			Issuer:       v.GetString("SESSION_ISSUER"),
			TTLHours:     v.GetInt("SESSION_TTL_HOURS"),
			Store:        strings.ToLower(v.GetString("SESSION_STORE")),
			CookieName:   v.GetString("SESSION_COOKIE_NAME"),
			CookieDomain: v.GetString("COOKIE_DOMAIN"),
			CookieSecure: cookieSecure,
		},
		Roles: RoleMarkerConfig{
			AdminMarker:   v.GetString("ROLE_ADMIN_MARKER"),
			TAMarker:      v.GetString("ROLE_TA_MARKER"),
			StudentMarker: v.GetString("ROLE_STUDENT_MARKER"),
		},
		Upload: UploadConfig{
			MaxBytes:       v.GetInt64("UPLOAD_MAX_BYTES"),
			RequireAdmin:   v.GetBool("UPLOAD_REQUIRE_ADMIN"),
			ArchiveEnabled: v.GetBool("UPLOAD_ARCHIVE_ENABLED"),
			Archive: ArchiveConfig{
				AccessKeyID:     v.GetString("UPLOAD_ARCHIVE_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("UPLOAD_ARCHIVE_SECRET_ACCESS_KEY"),
				Bucket:          v.GetString("UPLOAD_ARCHIVE_BUCKET"),
				Endpoint:        v.GetString("UPLOAD_ARCHIVE_ENDPOINT"),
				Region:          v.GetString("UPLOAD_ARCHIVE_REGION"),
				Prefix:          v.GetString("UPLOAD_ARCHIVE_PREFIX"),
			},
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping blanks
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.Session.Store != SessionStoreMemory && c.Session.Store != SessionStorePostgres {
		return fmt.Errorf("SESSION_STORE must be %q or %q", SessionStoreMemory, SessionStorePostgres)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}

	if c.Roles.AdminMarker == "" || c.Roles.TAMarker == "" || c.Roles.StudentMarker == "" {
		return fmt.Errorf("ROLE_ADMIN_MARKER, ROLE_TA_MARKER and ROLE_STUDENT_MARKER must not be empty")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Upload.ArchiveEnabled && c.Upload.Archive.Bucket == "" {
		return fmt.Errorf("UPLOAD_ARCHIVE_BUCKET is required when upload archiving is enabled")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
