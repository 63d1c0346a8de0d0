package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EmptyEntriesPlaceholder = "placeholder"
	EmptyEntriesReject      = "reject"
)

type Config struct {
	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIModel          string        `env:"OPENAI_MODEL"            envDefault:"gpt-4o-mini"`
	OpenAITemperature    float64       `env:"OPENAI_TEMPERATURE"      envDefault:"0.4"`
	OpenAIBaseURL        string        `env:"OPENAI_BASE_URL"`
	OpenAITimeout        time.Duration `env:"OPENAI_TIMEOUT"          envDefault:"0s"`
	Addr                 string        `env:"ADDR"                    envDefault:":8080"`
	LogLevel             string        `env:"LOG_LEVEL"               envDefault:"info"`
	Timezone             string        `env:"TIMEZONE"                envDefault:"UTC"`
	EmptyEntries         string        `env:"EMPTY_ENTRIES_POLICY"    envDefault:"placeholder"`
	SummaryCacheSize     int           `env:"SUMMARY_CACHE_SIZE"      envDefault:"256"`
	SummaryCacheTTL      time.Duration `env:"SUMMARY_CACHE_TTL"       envDefault:"15m"`
	SummaryCacheMaxBytes int           `env:"SUMMARY_CACHE_MAX_BYTES" envDefault:"4194304"`
	RedisURL             string        `env:"REDIS_URL"`
	HistoryDBPath        string        `env:"HISTORY_DB_PATH"`
	HistoryRetention     time.Duration `env:"HISTORY_RETENTION"       envDefault:"720h"`
	RateLimitInterval    time.Duration `env:"RATE_LIMIT_INTERVAL"     envDefault:"0s"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env file: %w", err)
	}

	return Parse(env.Options{})
}

// Parse builds a Config from the given env options. Tests pass
// Options.Environment to avoid touching the process environment.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.OpenAIModel = strings.TrimSpace(cfg.OpenAIModel)
	cfg.EmptyEntries = strings.ToLower(strings.TrimSpace(cfg.EmptyEntries))

	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.EmptyEntries {
	case EmptyEntriesPlaceholder, EmptyEntriesReject:
	default:
		return fmt.Errorf("EMPTY_ENTRIES_POLICY must be %q or %q, got %q",
			EmptyEntriesPlaceholder, EmptyEntriesReject, c.EmptyEntries)
	}

	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be within [0, 2], got %v", c.OpenAITemperature)
	}

	if c.SummaryCacheSize < 0 {
		return fmt.Errorf("SUMMARY_CACHE_SIZE must not be negative, got %d", c.SummaryCacheSize)
	}

	if c.SummaryCacheMaxBytes < 0 {
		return fmt.Errorf("SUMMARY_CACHE_MAX_BYTES must not be negative, got %d", c.SummaryCacheMaxBytes)
	}

	if c.RateLimitInterval < 0 {
		return fmt.Errorf("RATE_LIMIT_INTERVAL must not be negative, got %v", c.RateLimitInterval)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	return loc, nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	return level, nil
}

func (c Config) RejectEmptyEntries() bool {
	return c.EmptyEntries == EmptyEntriesReject
}

func (c Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.HistoryDBPath) != ""
}
