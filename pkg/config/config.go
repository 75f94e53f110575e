/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Typed configuration for the agent demo. Loaded through viper from defaults,
an optional config file, AGENTDEMO_* environment variables and bound CLI flags.
*/

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. AGENTDEMO_APP_NAME.
const EnvPrefix = "AGENTDEMO"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full demo configuration
type Config struct {
	AppName     string `mapstructure:"app_name"`
	AppToken    string `mapstructure:"app_token"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`

	Crash   CrashConfig          `mapstructure:"crash"`
	HTTP    HTTPConfig           `mapstructure:"http"`
	Sentry  SentryConfig         `mapstructure:"sentry"`
	Tracing TracingConfig        `mapstructure:"tracing"`
	Metrics MetricsConfig        `mapstructure:"metrics"`
	Logging logging.LoggerConfig `mapstructure:"logging"`
}

// CrashConfig controls where crash reports are written
type CrashConfig struct {
	Dir string `mapstructure:"dir"`
}

// HTTPConfig controls the sample network calls
type HTTPConfig struct {
	SampleURLs []string      `mapstructure:"sample_urls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// SentryConfig configures crash capture. An empty DSN keeps capture local.
type SentryConfig struct {
	DSN          string        `mapstructure:"dsn"`
	SampleRate   float64       `mapstructure:"sample_rate"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

// TracingConfig configures the OTLP span exporter
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "agent-demo")
	v.SetDefault("app_token", "")
	v.SetDefault("environment", "development")
	v.SetDefault("release", "dev")

	v.SetDefault("crash.dir", "./crashes")

	v.SetDefault("http.sample_urls", []string{"https://www.example.com/", "https://httpbin.org/html"})
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.retries", 1)
	v.SetDefault("http.user_agent", "agent-demo/1.0")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("sentry.flush_timeout", 2*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("metrics.namespace", "agentdemo")
	v.SetDefault("metrics.addr", "")

	v.SetDefault("logging.level", string(logging.LogLevelInfo))
	v.SetDefault("logging.format", string(logging.LogFormatCustom))
	v.SetDefault("logging.output_dir", "")
	v.SetDefault("logging.max_files", 10)
	v.SetDefault("logging.timestamp", true)
	v.SetDefault("logging.caller", false)
	v.SetDefault("logging.colors", true)
}

// Load reads configuration into a Config. configFile may be empty.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppName) == "" {
		return fmt.Errorf("%w: app_name must not be empty", ErrInvalidConfig)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("%w: http.timeout must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Retries < 0 {
		return fmt.Errorf("%w: http.retries must not be negative", ErrInvalidConfig)
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("%w: sentry.sample_rate must be within [0,1]", ErrInvalidConfig)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("%w: tracing.sample_rate must be within [0,1]", ErrInvalidConfig)
	}
	if c.Crash.Dir == "" {
		return fmt.Errorf("%w: crash.dir must not be empty", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
