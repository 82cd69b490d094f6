package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	GeneratorURL     string        `envconfig:"GENERATOR_URL"`
	GeneratorAPIKey  string        `envconfig:"GENERATOR_API_KEY"`
	GeneratorTimeout time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"60s"`

	// SaveDebounce is the trailing delay before a collaborative map is persisted.
	SaveDebounce time.Duration `envconfig:"SAVE_DEBOUNCE" default:"2s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LogLevel onto slog; unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
