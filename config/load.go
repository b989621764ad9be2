package config

import (
	"os"
	"strings"

	"github.com/servicekit/go-service-template/errors"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is prepended to every environment override (APP_SERVER_PORT)
const DefaultEnvPrefix = "APP"

// Load reads configuration from the TOML file at path (optional), applies
// environment overrides and validates the result. An empty path falls back
// to config.toml in the working directory when present.
func Load(path, envPrefix string) (*Config, error) {
	v, err := newViper(ResolvePath(path), envPrefix)
	if err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path without
// environment overrides.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return unmarshal(v)
}

// ResolvePath returns explicit when set, otherwise the default config file
// if it exists in the working directory, otherwise "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func newViper(path, envPrefix string) (*viper.Viper, error) {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v, envPrefix)
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}
