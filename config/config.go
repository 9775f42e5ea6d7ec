// Package config provides typed configuration loading for the driftchat server.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for the driftchat server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Matching MatchingConfig `yaml:"matching"`
	Limits   LimitsConfig   `yaml:"limits"`
}

// ServerConfig contains HTTP/WebSocket server settings.
type ServerConfig struct {
	Listen           string   `yaml:"listen"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	UseXForwardedFor bool     `yaml:"use_x_forwarded_for"`
	ReadTimeout      int      `yaml:"read_timeout"`
	WriteTimeout     int      `yaml:"write_timeout"`
	IdleTimeout      int      `yaml:"idle_timeout"`
	ShutdownTimeout  int      `yaml:"shutdown_timeout"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is the log output format: "json" or "console".
	Format string `yaml:"format"`
}

// MatchingConfig contains matchmaking policy settings.
type MatchingConfig struct {
	// FallbackAny pairs the two oldest waiting sessions when no interest
	// match exists. Off by default: strict interest equality only.
	FallbackAny bool `yaml:"fallback_any"`
}

// LimitsConfig contains size and flood-control limits.
type LimitsConfig struct {
	// Maximum chat message length in grapheme clusters.
	MaxMessageChars int `yaml:"max_message_chars"`
	// Maximum interest tag length in grapheme clusters.
	MaxInterestChars int `yaml:"max_interest_chars"`
	// Enqueue attempts allowed per session per EnqueueWindow seconds.
	EnqueueLimit  int `yaml:"enqueue_limit"`
	EnqueueWindow int `yaml:"enqueue_window"`
	// Chat messages allowed per session per MessageWindow seconds.
	MessageLimit  int `yaml:"message_limit"`
	MessageWindow int `yaml:"message_window"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// expandEnvVars expands ${VAR} and ${VAR:default} patterns in the config.
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		parts := re.FindStringSubmatch(match)
		envVar := parts[1]
		defaultVal := ""
		if len(parts) > 2 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(envVar); val != "" {
			return val
		}
		return defaultVal
	})
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":6061"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Limits.MaxMessageChars == 0 {
		c.Limits.MaxMessageChars = 2000
	}
	if c.Limits.MaxInterestChars == 0 {
		c.Limits.MaxInterestChars = 64
	}
	if c.Limits.EnqueueLimit == 0 {
		c.Limits.EnqueueLimit = 10
	}
	if c.Limits.EnqueueWindow == 0 {
		c.Limits.EnqueueWindow = 60
	}
	if c.Limits.MessageLimit == 0 {
		c.Limits.MessageLimit = 30
	}
	if c.Limits.MessageWindow == 0 {
		c.Limits.MessageWindow = 10
	}
}

// validate checks the configuration for invalid values.
func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console; got %q", c.Logging.Format)
	}

	if c.Limits.MaxMessageChars < 1 {
		return fmt.Errorf("limits.max_message_chars must be positive")
	}
	if c.Limits.MaxInterestChars < 1 {
		return fmt.Errorf("limits.max_interest_chars must be positive")
	}

	return nil
}
