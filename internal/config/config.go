package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/criteo/guestgate/internal/storage"
)

// EnvPrefix is the prefix of environment variables bound to config keys
const EnvPrefix = "GUESTGATE"

// minSecretLength matches the HS256 key requirement of the session codec
const minSecretLength = 32

// Config holds all configuration for the server
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Host      string `mapstructure:"host"`
	RateLimit int    `mapstructure:"rate_limit"` // requests per minute per client
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type           string        `mapstructure:"type"`            // none | basic
	UsersURI       string        `mapstructure:"users_uri"`       // file://, s3://, s3+http://, oci://
	UsersToken     string        `mapstructure:"users_token"`     // opaque credential for s3/oci
	ReloadInterval time.Duration `mapstructure:"reload_interval"` // 0 disables periodic reload
	Watch          bool          `mapstructure:"watch"`           // fsnotify reload for file://
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

// GuardConfig holds guest guard configuration
type GuardConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HomePath     string        `mapstructure:"home_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
}

// NewViper creates a new viper instance with defaults and environment binding.
// When configFile is set it is read on Load.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("auth.type", "none")
	v.SetDefault("auth.users_uri", "file://./users.yaml")
	v.SetDefault("auth.users_token", "")
	v.SetDefault("auth.reload_interval", "0s")
	v.SetDefault("auth.watch", true)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie_name", "guestgate_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("guard.poll_interval", "50ms")
	v.SetDefault("guard.timeout", "5s")
	v.SetDefault("guard.home_path", "/")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Bind environment variables with GUESTGATE_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	return v
}

// Load reads the config file (if any) and unmarshals into a Config.
// CLI flags take precedence and are bound via viper in the CLI layer.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("server.rate_limit must be positive")
	}

	if c.Auth.Type != "none" && c.Auth.Type != "basic" {
		return fmt.Errorf("auth.type must be 'none' or 'basic'")
	}

	if c.Auth.Type == "basic" {
		if _, err := storage.ParseStorageURI(c.Auth.UsersURI); err != nil {
			return fmt.Errorf("invalid auth.users_uri: %w", err)
		}
		if len(c.Session.Secret) < minSecretLength {
			return fmt.Errorf("session.secret must be at least %d characters when auth.type is 'basic'", minSecretLength)
		}
		if c.Session.TTL <= 0 {
			return fmt.Errorf("session.ttl must be positive")
		}
	}
	if c.Auth.ReloadInterval < 0 {
		return fmt.Errorf("auth.reload_interval must not be negative")
	}

	if c.Guard.PollInterval <= 0 {
		return fmt.Errorf("guard.poll_interval must be positive")
	}
	if c.Guard.Timeout < c.Guard.PollInterval {
		return fmt.Errorf("guard.timeout must be at least guard.poll_interval")
	}
	if !strings.HasPrefix(c.Guard.HomePath, "/") {
		return fmt.Errorf("guard.home_path must be an absolute path")
	}
	// browsers resolve "//host" and "/\\host" against another origin
	if strings.HasPrefix(c.Guard.HomePath, "//") || strings.HasPrefix(c.Guard.HomePath, "/\\") {
		return fmt.Errorf("guard.home_path must be a local path, not %q", c.Guard.HomePath)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn, or error")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be json or text")
	}

	return nil
}

// GetParsedUsersURI returns the parsed users document URI
func (c *Config) GetParsedUsersURI() (*storage.StorageURI, error) {
	return storage.ParseStorageURI(c.Auth.UsersURI)
}

// MaskToken returns a masked version of the users token for logging
func (c *Config) MaskToken() string {
	if c.Auth.UsersToken == "" {
		return ""
	}
	return "***"
}
