// Package config provides configuration loading, validation, and management
// for the sismobot application. Values come from built-in defaults, an optional
// YAML file, and SISMOBOT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "SISMOBOT"

// Config holds the complete application configuration.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Session   SessionConfig   `mapstructure:"session"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the bot credentials. BotInfo is filled at runtime after GetMe.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig configures the generation backend.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	ModelName         string        `mapstructure:"model_name"          validate:"required"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"min=100ms,max=5m"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SessionConfig selects where in-progress conversations are kept.
type SessionConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl"     validate:"min=1m"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is only consulted when Session.Backend is "redis".
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"         validate:"min=0,max=15"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a scheduled task with a cron expression (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-visible texts that are not part of a flow's prompts.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"         validate:"required"`
	UseMenuHint   string `mapstructure:"use_menu_hint"   validate:"required"`
	Cancelled     string `mapstructure:"cancelled"       validate:"required"`
	PhotoReceived string `mapstructure:"photo_received"  validate:"required"`
	VoiceReceived string `mapstructure:"voice_received"  validate:"required"`
	StrayInFlow   string `mapstructure:"stray_in_flow"   validate:"required"`
	QueryError    string `mapstructure:"query_error"     validate:"required"`
	RiskError     string `mapstructure:"risk_error"      validate:"required"`
	FollowUp      string `mapstructure:"follow_up"       validate:"required"`
	NextAction    string `mapstructure:"next_action"     validate:"required"`
	Unavailable   string `mapstructure:"unavailable"     validate:"required"`

	CmdStartDescription  string `mapstructure:"cmd_start_description"  validate:"required"`
	CmdMenuDescription   string `mapstructure:"cmd_menu_description"   validate:"required"`
	CmdCancelDescription string `mapstructure:"cmd_cancel_description" validate:"required"`
}

// LoadConfig reads configuration from the YAML file at path (optional), applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by the first deployment of the bot.
	_ = v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
			slog.Info("configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"model", cfg.Gemini.ModelName,
		"db_path", cfg.Database.Path,
		"session_backend", cfg.Session.Backend,
		"duration_ms", time.Since(startTime).Milliseconds())
	return cfg, nil
}

// Validate checks struct tags plus the cross-section rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: session.redis.addr is required when session.backend is redis")
	}
	return nil
}
