// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/roach88/giant/internal/engine"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/optimize"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	LogLevel              string  `env:"GIANT_LOG_LEVEL"              envDefault:"info"        validate:"oneof=debug info warn error"`
	LogFormat             string  `env:"GIANT_LOG_FORMAT"             envDefault:"text"        validate:"oneof=text json"`
	ExecutionLogCap       int     `env:"GIANT_EXECUTION_LOG_CAP"      envDefault:"1000"        validate:"gte=1"`
	SignificanceThreshold string  `env:"GIANT_SIGNIFICANCE_THRESHOLD" envDefault:"significant" validate:"oneof=negligible noticeable significant critical extreme"`
	ExplanationMode       bool    `env:"GIANT_EXPLANATION_MODE"       envDefault:"true"`
	ApproachThreshold     float64 `env:"GIANT_APPROACH_THRESHOLD"     envDefault:"0.8"         validate:"gt=0,lte=1"`
	MaxSolutions          int     `env:"GIANT_MAX_SOLUTIONS"          envDefault:"1000"        validate:"gte=1"`
}

var validate = validator.New()

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom is Load over an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ContextOptions converts the configuration into engine options.
func (c Config) ContextOptions() []engine.Option {
	threshold, err := ir.ParseSignificance(c.SignificanceThreshold)
	if err != nil {
		threshold = ir.SignificanceSignificant
	}
	return []engine.Option{
		engine.WithLogCap(c.ExecutionLogCap),
		engine.WithSignificanceThreshold(threshold),
		engine.WithExplanationMode(c.ExplanationMode),
		engine.WithApproachThreshold(c.ApproachThreshold),
	}
}

// OptimizerOptions converts the configuration into optimizer options.
func (c Config) OptimizerOptions() []optimize.Option {
	return []optimize.Option{optimize.WithMaxSolutions(c.MaxSolutions)}
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
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

// NewLogger builds a stderr logger in the configured format. verbose forces
// debug level.
func (c Config) NewLogger(verbose bool) *slog.Logger {
	return c.NewLoggerTo(os.Stderr, verbose)
}

// NewLoggerTo is NewLogger writing to w.
func (c Config) NewLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := c.Level()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
