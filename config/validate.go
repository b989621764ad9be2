package config

import (
	"github.com/servicekit/go-service-template/errors"
	"go.uber.org/zap/zapcore"
)

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.Newf("server.shutdown_timeout_seconds must be >= 0, got %d", c.Server.ShutdownTimeoutSeconds)
	}

	// Rate limit: 0 = disabled, negative = invalid
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return errors.Newf("server.rate_limit.requests_per_second must be >= 0, got %f", c.Server.RateLimit.RequestsPerSecond)
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst <= 0 {
		return errors.Newf("server.rate_limit.burst must be > 0 when limiting is enabled, got %d", c.Server.RateLimit.Burst)
	}

	if c.Auth.Enabled && len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return errors.WithHint(
			errors.Newf("auth.jwt_secret must be at least %d characters", MinJWTSecretLength),
			"set JWT_SECRET or disable auth with APP_AUTH_ENABLED=false for local development",
		)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errors.Newf("log.level %q is not a valid level", c.Log.Level)
	}

	return nil
}
