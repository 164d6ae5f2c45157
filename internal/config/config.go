package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
	SessionStoreSQL    = "sql"
)

type Config struct {
	TelegramToken string `mapstructure:"telegram_token" validate:"required"`

	DatabaseDriver string `mapstructure:"database_driver" validate:"oneof=postgres sqlite"`
	DatabaseURL    string `mapstructure:"database_url" validate:"required"`

	SessionStore  string `mapstructure:"session_store" validate:"oneof=memory redis sql"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=SessionStore redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`

	Workers             int           `mapstructure:"workers" validate:"gte=1,lte=1024"`
	ConversationTimeout time.Duration `mapstructure:"conversation_timeout" validate:"gt=0"`
	PollTimeout         int           `mapstructure:"poll_timeout" validate:"gte=0,lte=600"`
	APIRateLimit        float64       `mapstructure:"api_rate_limit" validate:"gt=0"`
	PlaceholderPath     string        `mapstructure:"placeholder_path"`

	WebPort   string `mapstructure:"web_port" validate:"omitempty,numeric"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`
}

var defaults = map[string]interface{}{
	"telegram_token":       "",
	"database_driver":      "sqlite",
	"database_url":         "stickers.db",
	"session_store":        SessionStoreMemory,
	"redis_addr":           "",
	"redis_password":       "",
	"redis_db":             0,
	"workers":              8,
	"conversation_timeout": 15 * time.Minute,
	"poll_timeout":         60,
	"api_rate_limit":       25.0,
	"placeholder_path":     "assets/dummy_sticker.png",
	"web_port":             "8080",
	"log_level":            "info",
	"log_format":           "text",
}

// Load reads .env, the optional config file already set on v and the
// environment, in increasing order of precedence. Flags bound to v win over all.
func Load(v *viper.Viper) (*Config, error) {
	// a missing .env is fine, the environment may be set by other means
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
