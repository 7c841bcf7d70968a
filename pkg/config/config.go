// Package config provides environment-based configuration for the git dashboard.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the dashboard server.
type Config struct {
	// Server configuration
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ScanRoot is the directory whose immediate subdirectories are
	// inspected as git working copies.
	ScanRoot string `yaml:"scan_root"`

	// Git subprocess configuration
	GitBinary      string        `yaml:"git_binary"`
	InspectTimeout time.Duration `yaml:"inspect_timeout"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	PullTimeout    time.Duration `yaml:"pull_timeout"`

	// FetchConcurrency bounds parallel git fetches during fetch-all.
	FetchConcurrency int `yaml:"fetch_concurrency"`

	// CacheTTL controls how long a cached repo status is considered fresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// HistoryPath is the sqlite database recording fetch/pull operations.
	// Empty disables persistence (operations are kept in memory only).
	HistoryPath string `yaml:"history_path"`

	// WatchEnabled controls filesystem watching of the scan root.
	WatchEnabled bool `yaml:"watch_enabled"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Load reads configuration from environment variables, with an optional
// YAML file overlay named by GITDASH_CONFIG. Environment variables win
// over file values.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("GITDASH_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = getEnv("GITDASH_HOST", cfg.Host)
	cfg.Port = getIntEnv("GITDASH_PORT", cfg.Port)
	cfg.ScanRoot = getEnv("GITDASH_SCAN_ROOT", cfg.ScanRoot)
	cfg.GitBinary = getEnv("GITDASH_GIT_BINARY", cfg.GitBinary)
	cfg.InspectTimeout = getDurationEnv("GITDASH_INSPECT_TIMEOUT", cfg.InspectTimeout)
	cfg.FetchTimeout = getDurationEnv("GITDASH_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.PullTimeout = getDurationEnv("GITDASH_PULL_TIMEOUT", cfg.PullTimeout)
	cfg.FetchConcurrency = getIntEnv("GITDASH_FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.CacheTTL = getDurationEnv("GITDASH_CACHE_TTL", cfg.CacheTTL)
	cfg.HistoryPath = getEnv("GITDASH_HISTORY_PATH", cfg.HistoryPath)
	cfg.WatchEnabled = getBoolEnv("GITDASH_WATCH", cfg.WatchEnabled)
	cfg.ShutdownTimeout = getDurationEnv("GITDASH_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getEnv("GITDASH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogJSON = getBoolEnv("GITDASH_LOG_JSON", cfg.LogJSON)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		Host:             "127.0.0.1",
		Port:             9999,
		ScanRoot:         filepath.Dir(wd),
		GitBinary:        "git",
		InspectTimeout:   10 * time.Second,
		FetchTimeout:     60 * time.Second,
		PullTimeout:      120 * time.Second,
		FetchConcurrency: 4,
		CacheTTL:         30 * time.Second,
		HistoryPath:      filepath.Join(".gitdash", "history.db"),
		WatchEnabled:     true,
		ShutdownTimeout:  15 * time.Second,
		LogLevel:         "info",
		LogJSON:          false,
	}
}

// LoadWithDefaults returns a configuration with defaults only, skipping
// the environment and validation. Useful for tests.
func LoadWithDefaults() *Config {
	return defaults()
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.InspectTimeout <= 0 || c.FetchTimeout <= 0 || c.PullTimeout <= 0 {
		return fmt.Errorf("git timeouts must be positive")
	}
	if c.GitBinary == "" {
		return fmt.Errorf("git binary must not be empty")
	}

	info, err := os.Stat(c.ScanRoot)
	if err != nil {
		return fmt.Errorf("scan root %s: %w", c.ScanRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root %s is not a directory", c.ScanRoot)
	}

	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel returns the configured log level as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
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

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
