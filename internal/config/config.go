// Package config provides YAML-based configuration loading for ReflectAI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables holding secrets.
const EnvPrefix = "REFLECTAI"

// Config is the top-level ReflectAI configuration, loaded from reflectai.yaml.
type Config struct {
	Owner    string         `yaml:"owner"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Sync     SyncConfig     `yaml:"sync"`
	AI       AIConfig       `yaml:"ai"`
	Report   ReportConfig   `yaml:"report"`

	Secrets Secrets `yaml:"-"`
}

// DatabaseConfig selects and addresses the backing store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	Path   string `yaml:"path"`   // sqlite file
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SyncConfig controls background persistence of edited trees.
type SyncConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// AIConfig selects the chat-completion provider used for reports.
type AIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// ReportConfig schedules and routes the weekly report.
type ReportConfig struct {
	Schedule string `yaml:"schedule"`
	Notify   string `yaml:"notify"` // none, slack, discord
	Channel  string `yaml:"channel"`
}

// Secrets are read from the environment only, never from the YAML file.
type Secrets struct {
	AIAPIKey         string `envconfig:"AI_API_KEY"`
	SlackBotToken    string `envconfig:"SLACK_BOT_TOKEN"`
	DiscordBotToken  string `envconfig:"DISCORD_BOT_TOKEN"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
}

// Load reads a YAML config file from path, overlays secrets from the
// environment, and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "reflectai.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "reflectai"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = 10 * time.Second
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "deepseek"
	}
	if c.Report.Notify == "" {
		c.Report.Notify = "none"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Owner == "" {
		errs = append(errs, "owner is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if c.Sync.Timeout < 0 {
		errs = append(errs, "sync.timeout must be positive")
	}
	switch c.AI.Provider {
	case "deepseek", "openai", "qwen":
	default:
		errs = append(errs, fmt.Sprintf("ai.provider %q must be deepseek, openai or qwen", c.AI.Provider))
	}
	switch c.Report.Notify {
	case "none":
	case "slack", "discord":
		if c.Report.Channel == "" {
			errs = append(errs, fmt.Sprintf("report.channel is required when notify is %s", c.Report.Notify))
		}
	default:
		errs = append(errs, fmt.Sprintf("report.notify %q must be none, slack or discord", c.Report.Notify))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
