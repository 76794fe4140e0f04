// Package config provides runtime configuration for the web BFF.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains runtime configuration for the web BFF.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`
	Cookie   CookieConfig   `yaml:"cookie" mapstructure:"cookie"`
	Preview  PreviewConfig  `yaml:"preview" mapstructure:"preview"`
	NATS     NATSConfig     `yaml:"nats" mapstructure:"nats"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`

	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// ServerConfig captures HTTP server settings.
type ServerConfig struct {
	Port                int `yaml:"port" mapstructure:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
}

// UpstreamConfig points at the external services the BFF fronts.
// GatewayURL may legitimately be empty, in which case every proxied
// request fails fast with a configuration error.
type UpstreamConfig struct {
	GatewayURL  string `yaml:"gateway_url" mapstructure:"gateway_url"`
	TemplateURL string `yaml:"template_url" mapstructure:"template_url"`
}

// CookieConfig captures session cookie attributes.
type CookieConfig struct {
	Domain string `yaml:"domain" mapstructure:"domain"`
	Secure bool   `yaml:"secure" mapstructure:"secure"`
}

// PreviewConfig captures live-preview channel settings.
type PreviewConfig struct {
	DebounceMS     int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	SnapshotTTLMin int      `yaml:"snapshot_ttl_minutes" mapstructure:"snapshot_ttl_minutes"`
}

// Debounce returns the preview debounce interval as a duration.
func (p PreviewConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// SnapshotTTL returns how long retained snapshots survive in the state store.
func (p PreviewConfig) SnapshotTTL() time.Duration {
	return time.Duration(p.SnapshotTTLMin) * time.Minute
}

// NATSConfig captures the optional cross-instance preview bridge settings.
type NATSConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxReconnects int    `yaml:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait int    `yaml:"reconnect_wait_seconds" mapstructure:"reconnect_wait_seconds"`
}

// ReconnectWaitDuration returns the reconnect wait as a time.Duration.
func (n NATSConfig) ReconnectWaitDuration() time.Duration {
	return time.Duration(n.ReconnectWait) * time.Second
}

// RedisConfig captures the optional snapshot store settings.
// An empty URL selects the in-memory store.
type RedisConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// Load reads configuration from the provided path and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)

	// Empty by default: proxied requests must surface a configuration
	// error rather than guess at a gateway address.
	v.SetDefault("upstream.gateway_url", "")
	v.SetDefault("upstream.template_url", "")

	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", true)

	v.SetDefault("preview.debounce_ms", 150)
	v.SetDefault("preview.allowed_origins", []string{})
	v.SetDefault("preview.snapshot_ttl_minutes", 60)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait_seconds", 2)

	v.SetDefault("redis.url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("static_dir", "./static")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/invitely/web")
	}

	// Environment variables override
	v.SetEnvPrefix("WEB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found; use defaults
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
