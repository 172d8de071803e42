// Package config loads taskctl runtime settings from TOML with a defaults
// overlay: only keys present in the file override the shipped defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"taskctl/internal/dump"
	"taskctl/internal/transport"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the resolved runtime configuration.
type Config struct {
	Device    string
	Baud      int
	DumpPath  string
	FlashPath string
	LogLevel  string
	// MetricsAddr serves prometheus metrics when non-empty.
	MetricsAddr string
	Transport   transport.Config
}

// fileConfig is the taskctl.toml key mapping.
type fileConfig struct {
	Device            string  `toml:"device"`
	Baud              int     `toml:"baud"`
	DumpPath          string  `toml:"dump_path"`
	FlashPath         string  `toml:"flash_path"`
	LogLevel          string  `toml:"log_level"`
	MetricsAddr       string  `toml:"metrics_addr"`
	WarmupMS          int64   `toml:"warmup_ms"`
	ReadTimeoutMS     int64   `toml:"read_timeout_ms"`
	WriteAttempts     int     `toml:"write_attempts"`
	ErrorBuffer       int     `toml:"error_buffer"`
	BackoffInitialMS  int64   `toml:"backoff_initial_ms"`
	BackoffMaxMS      int64   `toml:"backoff_max_ms"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	BackoffJitter     bool    `toml:"backoff_jitter"`
}

func Default() Config {
	return Config{
		Baud:      115200,
		DumpPath:  dump.DefaultFramePath,
		FlashPath: dump.DefaultFlashPath,
		LogLevel:  "info",
		Transport: transport.DefaultConfig(),
	}
}

// Load reads path and overlays its keys on the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("dump_path") {
		cfg.DumpPath = strings.TrimSpace(raw.DumpPath)
	}
	if meta.IsDefined("flash_path") {
		cfg.FlashPath = strings.TrimSpace(raw.FlashPath)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("warmup_ms") {
		cfg.Transport.WarmupDelay = time.Duration(raw.WarmupMS) * time.Millisecond
	}
	if meta.IsDefined("read_timeout_ms") {
		cfg.Transport.ReadTimeout = time.Duration(raw.ReadTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("write_attempts") {
		cfg.Transport.WriteAttempts = raw.WriteAttempts
	}
	if meta.IsDefined("error_buffer") {
		cfg.Transport.ErrorBuffer = raw.ErrorBuffer
	}
	if meta.IsDefined("backoff_initial_ms") {
		cfg.Transport.Backoff.InitialDelay = time.Duration(raw.BackoffInitialMS) * time.Millisecond
	}
	if meta.IsDefined("backoff_max_ms") {
		cfg.Transport.Backoff.MaxDelay = time.Duration(raw.BackoffMaxMS) * time.Millisecond
	}
	if meta.IsDefined("backoff_multiplier") {
		cfg.Transport.Backoff.Multiplier = raw.BackoffMultiplier
	}
	if meta.IsDefined("backoff_jitter") {
		cfg.Transport.Backoff.Jitter = raw.BackoffJitter
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", ErrInvalidConfig, cfg.Baud)
	}
	if cfg.Transport.WriteAttempts < 1 {
		return fmt.Errorf("%w: write_attempts must be at least 1", ErrInvalidConfig)
	}
	if cfg.Transport.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read_timeout_ms must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.DumpPath) == "" {
		return fmt.Errorf("%w: dump_path must not be empty", ErrInvalidConfig)
	}
	return nil
}
