// ABOUTME: Collector tuning file: pause, step multiplier, memory limit and logging
// ABOUTME: YAML documents are decoded strictly and validated before use

// Package config loads collector settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"

	"github.com/prateek/tricolor/gc"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the on-disk representation of collector settings. Byte sizes
// are human readable, for example "64MB" or "512KB".
type Config struct {
	Pause       int    `yaml:"pause"`
	StepMul     int    `yaml:"stepmul"`
	Threshold   string `yaml:"threshold,omitempty"`
	MemoryLimit string `yaml:"memory_limit,omitempty"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`

	threshold uint64
	limit     uint64
	level     slog.Level
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Pause:    gc.DefaultPause,
		StepMul:  gc.DefaultStepMul,
		LogLevel: "info",
		level:    slog.LevelInfo,
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and parses the byte sizes and log level.
func (c *Config) Validate() error {
	if c.Pause <= 0 {
		return fmt.Errorf("%w: pause must be positive, got %d", ErrInvalid, c.Pause)
	}
	if c.StepMul <= 0 {
		return fmt.Errorf("%w: stepmul must be positive, got %d", ErrInvalid, c.StepMul)
	}
	var err error
	if c.threshold, err = parseSize("threshold", c.Threshold); err != nil {
		return err
	}
	if c.limit, err = parseSize("memory_limit", c.MemoryLimit); err != nil {
		return err
	}
	if c.limit > 0 && c.threshold > c.limit {
		return fmt.Errorf("%w: threshold %s exceeds memory_limit %s", ErrInvalid, c.Threshold, c.MemoryLimit)
	}
	if err := c.level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

func parseSize(field, s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	b, err := bytesize.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalid, field, s, err)
	}
	if b < 0 {
		return 0, fmt.Errorf("%w: %s %q is negative", ErrInvalid, field, s)
	}
	return uint64(b), nil
}

// MemoryLimitBytes returns the parsed memory limit; zero means unlimited.
func (c Config) MemoryLimitBytes() uint64 { return c.limit }

// Level returns the parsed log level.
func (c Config) Level() slog.Level { return c.level }

// Logger builds a text logger at the configured level writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level}))
}

// GC converts the settings into a collector configuration. The logger may
// be nil.
func (c Config) GC(log *slog.Logger) gc.Config {
	return gc.Config{
		Pause:     c.Pause,
		StepMul:   c.StepMul,
		Threshold: c.threshold,
		Storage:   gc.NewLimitStorage(c.limit),
		Logger:    log,
		Debug:     c.Debug,
	}
}

// Marshal encodes the settings as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
