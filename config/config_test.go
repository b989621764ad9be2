package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(writeConfig(t, ""), "GSTTEST")
	require.NoError(t, err)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Address())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.CORS.MaxAge())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080
host = "127.0.0.1"

[auth]
enabled = false

[log]
level = "debug"
json = true
`)
	t.Setenv("GSTTEST_SERVER_PORT", "9090")

	cfg, err := Load(path, "GSTTEST")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "environment overrides file")
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadPrefixedSecret(t *testing.T) {
	t.Setenv("GSTTEST_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load(writeConfig(t, ""), "GSTTEST")
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), "GSTTEST")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFileIgnoresEnvironment(t *testing.T) {
	path := writeConfig(t, "[auth]\nenabled = false\n")
	t.Setenv("APP_SERVER_PORT", "1234")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/etc/service.toml", ResolvePath("/etc/service.toml"))

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Equal(t, "", ResolvePath(""))
	require.NoError(t, os.WriteFile(DefaultConfigFile, nil, 0644))
	assert.Equal(t, DefaultConfigFile, ResolvePath(""))
}

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "tasks.db"},
		Server: ServerConfig{
			Port:      3000,
			RateLimit: RateLimitConfig{RequestsPerSecond: 5, Burst: 10},
		},
		Auth: AuthConfig{Enabled: true, JWTSecret: testSecret},
		Log:  LogConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeoutSeconds = -1 }, "shutdown_timeout"},
		{"negative rate", func(c *Config) { c.Server.RateLimit.RequestsPerSecond = -1 }, "requests_per_second"},
		{"zero burst with limit", func(c *Config) { c.Server.RateLimit.Burst = 0 }, "burst"},
		{"rate limiting disabled", func(c *Config) { c.Server.RateLimit = RateLimitConfig{} }, ""},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"short secret with auth disabled", func(c *Config) { c.Auth = AuthConfig{} }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatcherReload(t *testing.T) {
	path := writeConfig(t, "[auth]\nenabled = false\n")

	w, err := NewWatcher(path, "GSTTEST", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	w.debouncePeriod = 10 * time.Millisecond

	reloaded := make(chan *Config, 1)
	w.OnReload(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})
	w.Start()
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("[auth]\nenabled = false\n[server]\nport = 4242\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 4242, cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload configuration")
	}
}
