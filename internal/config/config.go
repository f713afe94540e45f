// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Cleanup CleanupConfig `mapstructure:"cleanup" yaml:"cleanup"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the shared headless browser session.
type BrowserConfig struct {
	// ChromePath is an optional explicit path to the Chrome binary. The
	// CHROME_BINARY environment variable takes precedence over it.
	ChromePath string `mapstructure:"chrome_path" yaml:"chrome_path"`
	// Scale multiplies the base 1024x1024 window. Values below 1.0 are
	// raised to 1.0 at validation time.
	Scale     float64 `mapstructure:"scale" yaml:"scale"`
	UserAgent string  `mapstructure:"user_agent" yaml:"user_agent"`
	Headless  bool    `mapstructure:"headless" yaml:"headless"`
	// LaunchTimeout bounds how long a single launch strategy may take
	// before the next one is tried.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// CaptureConfig holds the defaults for the capture pipeline.
type CaptureConfig struct {
	// Mode selects which footer chrome is hidden before the screenshot.
	Mode int `mapstructure:"mode" yaml:"mode"`
	// NightMode is the value of the site appearance cookie (0-2).
	NightMode int `mapstructure:"night_mode" yaml:"night_mode"`
	// WaitSeconds bounds the wait for the tweet block to render (1-30).
	WaitSeconds int `mapstructure:"wait_seconds" yaml:"wait_seconds"`
	// OutputRoot is where per-tweet screenshots-{id} directories go.
	OutputRoot string `mapstructure:"output_root" yaml:"output_root"`
	// ConverterURL is the third-party video conversion endpoint.
	ConverterURL string `mapstructure:"converter_url" yaml:"converter_url"`
	// DownloadRate caps media downloads per second.
	DownloadRate float64 `mapstructure:"download_rate" yaml:"download_rate"`
}

// CleanupConfig tunes the stale output janitor.
type CleanupConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tweetframe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.scale", 1.0)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Capture --
	v.SetDefault("capture.mode", 2)
	v.SetDefault("capture.night_mode", 1)
	v.SetDefault("capture.wait_seconds", 15)
	v.SetDefault("capture.output_root", ".")
	v.SetDefault("capture.converter_url", "https://twtube.app/en/")
	v.SetDefault("capture.download_rate", 4.0)

	// -- Cleanup --
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.retention", "1h")
	v.SetDefault("cleanup.interval", "10m")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values and normalizes the
// clampable capture parameters. Out-of-range mode, night mode and wait
// values are brought back into range rather than rejected, so a bad config
// file can never push undefined values into the pipeline.
func (c *Config) Validate() error {
	if c.Browser.Scale < 1.0 {
		c.Browser.Scale = 1.0
	}
	if c.Browser.LaunchTimeout <= 0 {
		return fmt.Errorf("browser.launch_timeout must be a positive duration")
	}
	c.Capture.Mode = clampInt(c.Capture.Mode, 0, 4)
	c.Capture.NightMode = clampInt(c.Capture.NightMode, 0, 2)
	c.Capture.WaitSeconds = clampInt(c.Capture.WaitSeconds, 1, 30)
	if c.Capture.OutputRoot == "" {
		return fmt.Errorf("capture.output_root must not be empty")
	}
	if c.Capture.ConverterURL == "" {
		return fmt.Errorf("capture.converter_url must not be empty")
	}
	if c.Capture.DownloadRate <= 0 {
		return fmt.Errorf("capture.download_rate must be positive")
	}
	if c.Cleanup.Enabled {
		if c.Cleanup.Retention <= 0 || c.Cleanup.Interval <= 0 {
			return fmt.Errorf("cleanup.retention and cleanup.interval must be positive durations")
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
