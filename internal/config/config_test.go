package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      8080,
			Host:      "0.0.0.0",
			RateLimit: 100,
		},
		Auth: AuthConfig{
			Type:     "basic",
			UsersURI: "file://./users.yaml",
		},
		Session: SessionConfig{
			Secret: "0123456789abcdef0123456789abcdef",
			TTL:    time.Hour,
		},
		Guard: GuardConfig{
			PollInterval: 50 * time.Millisecond,
			Timeout:      5 * time.Second,
			HomePath:     "/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "empty token",
			token:    "",
			expected: "",
		},
		{
			name:     "non-empty token",
			token:    "my-secret-token",
			expected: "***",
		},
		{
			name:     "short token",
			token:    "x",
			expected: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Auth: AuthConfig{
					UsersToken: tt.token,
				},
			}
			assert.Equal(t, tt.expected, cfg.MaskToken())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(""))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, "none", cfg.Auth.Type)
	assert.True(t, cfg.Auth.Watch)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 50*time.Millisecond, cfg.Guard.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Guard.Timeout)
	assert.Equal(t, "/", cfg.Guard.HomePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GUESTGATE_GUARD_TIMEOUT", "2s")
	t.Setenv("GUESTGATE_AUTH_TYPE", "basic")

	cfg, err := Load(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Guard.Timeout)
	assert.Equal(t, "basic", cfg.Auth.Type)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guestgate.yaml")
	content := `
server:
  port: 9090
guard:
  poll_interval: 20ms
  home_path: /app
auth:
  type: basic
  users_uri: s3://s3.amazonaws.com/bucket/users.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(NewViper(path))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20*time.Millisecond, cfg.Guard.PollInterval)
	assert.Equal(t, "/app", cfg.Guard.HomePath)
	assert.Equal(t, "s3://s3.amazonaws.com/bucket/users.yaml", cfg.Auth.UsersURI)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(NewViper(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 0 },
			errMsg: "server.port",
		},
		{
			name:   "bad rate limit",
			mutate: func(c *Config) { c.Server.RateLimit = 0 },
			errMsg: "server.rate_limit",
		},
		{
			name:   "unknown auth type",
			mutate: func(c *Config) { c.Auth.Type = "ldap" },
			errMsg: "auth.type",
		},
		{
			name:   "unsupported users scheme",
			mutate: func(c *Config) { c.Auth.UsersURI = "http://example.com/users.yaml" },
			errMsg: "unsupported storage scheme",
		},
		{
			name:   "empty users URI",
			mutate: func(c *Config) { c.Auth.UsersURI = "" },
			errMsg: "cannot be empty",
		},
		{
			name:   "short secret",
			mutate: func(c *Config) { c.Session.Secret = "short" },
			errMsg: "session.secret",
		},
		{
			name: "short secret allowed without auth",
			mutate: func(c *Config) {
				c.Auth.Type = "none"
				c.Session.Secret = ""
			},
		},
		{
			name:   "zero poll interval",
			mutate: func(c *Config) { c.Guard.PollInterval = 0 },
			errMsg: "guard.poll_interval",
		},
		{
			name:   "timeout below poll interval",
			mutate: func(c *Config) { c.Guard.Timeout = time.Millisecond },
			errMsg: "guard.timeout",
		},
		{
			name:   "relative home path",
			mutate: func(c *Config) { c.Guard.HomePath = "home" },
			errMsg: "guard.home_path",
		},
		{
			name:   "protocol-relative home path",
			mutate: func(c *Config) { c.Guard.HomePath = "//evil.example.com/" },
			errMsg: "guard.home_path must be a local path",
		},
		{
			name:   "backslash home path",
			mutate: func(c *Config) { c.Guard.HomePath = `/\evil.example.com` },
			errMsg: "guard.home_path must be a local path",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			errMsg: "logging.level",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			errMsg: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
