// Package config loads pulseeco settings from flags, environment, .env and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
	"github.com/i474232898/pulse-eco/pkg/pulseeco/transport"
)

// EnvPrefix is prepended to every environment key, so spans.raw is read
// from PULSE_ECO_SPANS_RAW.
const EnvPrefix = "PULSE_ECO"

// Config is the complete pulseeco configuration.
type Config struct {
	City          string `mapstructure:"city"`
	BaseURLFormat string `mapstructure:"base_url_format"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Output        string `mapstructure:"output"`

	Spans   SpansConfig   `mapstructure:"spans"`
	Fanout  FanoutConfig  `mapstructure:"fanout"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// SpansConfig overrides the per-request window limits.
type SpansConfig struct {
	Raw time.Duration `mapstructure:"raw"`
	Avg time.Duration `mapstructure:"avg"`
}

type FanoutConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// HTTPConfig tunes the transport.
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	Burst          int           `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig configures the gateway and the overall poller.
type ServerConfig struct {
	Addr     string        `mapstructure:"addr"`
	Watch    []string      `mapstructure:"watch"`
	Interval time.Duration `mapstructure:"interval"`

	// In-memory history retention.
	MaxHistory int           `mapstructure:"max_history"` // snapshots per city (0 = unlimited)
	MaxAge     time.Duration `mapstructure:"max_age"`     // 0 = unlimited
}

// LoadDotEnv loads .env files into the process environment. A missing file
// is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}
}

// Load reads configuration from cfgFile (or .pulseeco.yaml in the working
// directory or $HOME/.config/pulseeco), PULSE_ECO_* environment variables
// and whatever bind attaches, typically command line flags.
func Load(cfgFile string, bind func(v *viper.Viper) error) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".pulseeco")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pulseeco")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("city", "skopje")
	v.SetDefault("base_url_format", transport.DefaultBaseURLFormat)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("output", "json")

	v.SetDefault("spans.raw", pulseeco.DataRawMaxSpan)
	v.SetDefault("spans.avg", pulseeco.AvgDataMaxSpan)
	v.SetDefault("fanout.concurrency", 1)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_retries", 0)
	v.SetDefault("http.initial_backoff", 500*time.Millisecond)
	v.SetDefault("http.max_backoff", 5*time.Second)
	v.SetDefault("http.rate_limit", 0.0)
	v.SetDefault("http.burst", 1)

	v.SetDefault("logging.level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.watch", []string{})
	v.SetDefault("server.interval", 15*time.Minute)
	v.SetDefault("server.max_history", 96) // roughly 24h at 15-minute intervals
	v.SetDefault("server.max_age", 24*time.Hour)
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validOutputs = map[string]bool{"json": true, "yaml": true, "table": true}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.City == "" {
		return errors.New("city must not be empty")
	}
	if !strings.Contains(c.BaseURLFormat, transport.PlaceholderEndpoint) {
		return fmt.Errorf("base url format %q has no %s placeholder", c.BaseURLFormat, transport.PlaceholderEndpoint)
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output format: %s (must be json, yaml, or table)", c.Output)
	}
	if c.Spans.Raw <= 0 || c.Spans.Avg <= 0 {
		return fmt.Errorf("spans must be positive (raw=%s, avg=%s)", c.Spans.Raw, c.Spans.Avg)
	}
	if c.Fanout.Concurrency < 1 {
		return fmt.Errorf("fanout concurrency must be at least 1, got %d", c.Fanout.Concurrency)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http max_retries must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if c.HTTP.MaxRetries > 0 && c.HTTP.InitialBackoff <= 0 {
		return errors.New("http initial_backoff must be positive when retries are enabled")
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}

// SlogLevel maps Logging.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Transport builds the transport configuration. When explicit is true the
// configured username wins over the per-city environment lookup; otherwise
// it is the last fallback.
func (c *Config) Transport(explicit bool) transport.Config {
	var static transport.CredentialsFunc
	if c.Username != "" {
		static = transport.StaticCredentials(transport.Credentials{Username: c.Username, Password: c.Password})
	}
	creds := transport.ChainCredentials(transport.CredentialsFromEnv(nil), static)
	if explicit && static != nil {
		creds = static
	}

	return transport.Config{
		BaseURLFormat: c.BaseURLFormat,
		Client:        &http.Client{Timeout: c.HTTP.Timeout},
		Backoff: transport.BackoffConfig{
			MaxRetries:      c.HTTP.MaxRetries,
			InitialInterval: c.HTTP.InitialBackoff,
			MaxInterval:     c.HTTP.MaxBackoff,
		},
		RequestsPerSecond: c.HTTP.RateLimit,
		Burst:             c.HTTP.Burst,
		Credentials:       creds,
	}
}

// ClientOptions returns the pulseeco client options implied by the config.
func (c *Config) ClientOptions() []pulseeco.Option {
	return []pulseeco.Option{
		pulseeco.WithMaxSpans(c.Spans.Raw, c.Spans.Avg),
		pulseeco.WithConcurrency(c.Fanout.Concurrency),
	}
}
