package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/dataset"
	"github.com/newthinker/macrolens/internal/fusion"
	"github.com/newthinker/macrolens/internal/macro"
	"github.com/newthinker/macrolens/internal/market"
	"github.com/newthinker/macrolens/internal/router"
	"github.com/newthinker/macrolens/internal/sentiment"
	"github.com/newthinker/macrolens/internal/storage/archive"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       LogConfig        `mapstructure:"log"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Notifiers NotifiersConfig  `mapstructure:"notifiers"`
	Router    router.Config    `mapstructure:"router"`
	Schedule  ScheduleConfig   `mapstructure:"schedule"`
	Sources   SourcesConfig    `mapstructure:"sources"`
	Macro     macro.Config     `mapstructure:"macro"`
	Market    market.Config    `mapstructure:"market"`
	Sentiment sentiment.Config `mapstructure:"sentiment"`
	Fusion    fusion.Config    `mapstructure:"fusion"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	APIKey       string        `mapstructure:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type StorageConfig struct {
	History HistoryConfig  `mapstructure:"history"`
	Archive archive.Config `mapstructure:"archive"`
}

// HistoryConfig selects the report history store. An empty DSN or
// "memory" keeps reports in process.
type HistoryConfig struct {
	DSN            string `mapstructure:"dsn"`
	MemoryCapacity int    `mapstructure:"memory_capacity"`
}

type NotifiersConfig struct {
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// ScheduleConfig reruns the analysis from Inputs on a cron schedule.
type ScheduleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Cron    string        `mapstructure:"cron"`
	Inputs  dataset.Files `mapstructure:"inputs"`
}

// SourcesConfig bounds each source's analysis.
type SourcesConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.Expand(val, os.Getenv))
		}
	}

	cfg := Defaults()
	// A configured weight table replaces the default one instead of merging.
	if v.IsSet("fusion.weights") {
		cfg.Fusion.Weights = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 32 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			History: HistoryConfig{
				DSN:            "memory",
				MemoryCapacity: 500,
			},
		},
		Router: router.DefaultConfig(),
		Schedule: ScheduleConfig{
			Cron: "0 7 * * 1-5",
		},
		Sources: SourcesConfig{
			Timeout: 10 * time.Second,
		},
		Macro:     macro.DefaultConfig(),
		Market:    market.DefaultConfig(),
		Sentiment: sentiment.DefaultConfig(),
		Fusion:    fusion.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return invalid("log level %q: %v", c.Log.Level, err)
		}
	}

	if err := c.Router.Validate(); err != nil {
		return err
	}

	switch c.Storage.Archive.Type {
	case "":
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required when type is s3"))
		}
	default:
		return invalid("unknown archive type %q", c.Storage.Archive.Type)
	}

	if c.Notifiers.Webhook.Enabled && c.Notifiers.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("webhook url required when webhook is enabled"))
	}
	if c.Notifiers.Telegram.Enabled &&
		(c.Notifiers.Telegram.BotToken == "" || c.Notifiers.Telegram.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("telegram bot_token and chat_id required when telegram is enabled"))
	}

	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return invalid("schedule cron %q: %v", c.Schedule.Cron, err)
		}
		if c.Schedule.Inputs.Empty() {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("schedule inputs required when schedule is enabled"))
		}
	}

	if c.Sources.Timeout <= 0 {
		return invalid("sources timeout must be positive, got %s", c.Sources.Timeout)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics path must start with /, got %q", c.Metrics.Path)
	}

	for _, v := range []interface{ Validate() error }{c.Macro, c.Market, c.Sentiment, c.Fusion} {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}
