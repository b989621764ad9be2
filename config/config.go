// Package config loads service configuration from TOML files and APP_*
// environment variables.
package config

import (
	"strconv"
	"time"
)

// Config is the complete service configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`

	// +optional
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host                   string          `mapstructure:"host"`
	Port                   int             `mapstructure:"port"`
	ReadTimeoutSeconds     int             `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int             `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int             `mapstructure:"shutdown_timeout_seconds"`
	RateLimit              RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-client token buckets. RequestsPerSecond 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Address returns host:port for net.Listen
func (s ServerConfig) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// ReadTimeout is the http.Server read timeout
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout is the http.Server write timeout
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful shutdown
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// AuthConfig configures bearer token verification
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// KafkaConfig configures the task event producer. Events are only published
// when Enabled is set and at least one broker is listed.
type KafkaConfig struct {
	Enabled             bool     `mapstructure:"enabled"`
	Brokers             []string `mapstructure:"brokers"`
	Topic               string   `mapstructure:"topic"`
	BatchTimeoutMS      int      `mapstructure:"batch_timeout_ms"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds"`
}

// BatchTimeout is how long the writer waits to fill a batch
func (k KafkaConfig) BatchTimeout() time.Duration {
	return time.Duration(k.BatchTimeoutMS) * time.Millisecond
}

// WriteTimeout bounds a single produce call
func (k KafkaConfig) WriteTimeout() time.Duration {
	if k.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(k.WriteTimeoutSeconds) * time.Second
}

// CORSConfig configures cross-origin access to the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAgeSeconds  int      `mapstructure:"max_age_seconds"`
}

// MaxAge is the preflight cache duration
func (c CORSConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default values shared with SetDefaults
const (
	DefaultServerHost   = "0.0.0.0"
	DefaultServerPort   = 3000
	MinJWTSecretLength  = 32
	DefaultDatabasePath = "data/tasks.db"
	DefaultConfigFile   = "config.toml"

	// DefaultDirPermissions for directories created on behalf of the operator
	DefaultDirPermissions = 0755
)
