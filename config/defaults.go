package config

import (
	"strings"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options.
// Every key needs a default so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.rate_limit.requests_per_second", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "task-events")
	v.SetDefault("kafka.batch_timeout_ms", 10)
	v.SetDefault("kafka.write_timeout_seconds", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age_seconds", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars binds secrets to explicit environment variables in
// addition to the prefixed names, so deployments can use the conventional
// JWT_SECRET without knowing the prefix.
func BindSensitiveEnvVars(v *viper.Viper, envPrefix string) {
	prefix := strings.ToUpper(envPrefix)
	_ = v.BindEnv("auth.jwt_secret", prefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
}
