package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.cchat/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	APIURL         string `toml:"api_url"`
	SocketURL      string `toml:"socket_url"`
	TypingQuietMS  int    `toml:"typing_quiet_ms"`
	OutboxTickMS   int    `toml:"outbox_tick_ms"`
	ReconnectMinMS int    `toml:"reconnect_min_ms"`
	ReconnectMaxMS int    `toml:"reconnect_max_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProfile: "default",
		APIURL:         "http://localhost:5001",
		SocketURL:      "ws://localhost:5001/socket",
		TypingQuietMS:  1000,
		OutboxTickMS:   500,
		ReconnectMinMS: 1000,
		ReconnectMaxMS: 30000,
	}
}

// Load reads config from the given path, layering file values over defaults
// and CCHAT_* environment variables over both. A missing file is not an
// error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// TypingQuiet returns the typing debounce interval.
func (c *Config) TypingQuiet() time.Duration {
	return time.Duration(c.TypingQuietMS) * time.Millisecond
}

// OutboxTick returns the outbox drain interval.
func (c *Config) OutboxTick() time.Duration {
	return time.Duration(c.OutboxTickMS) * time.Millisecond
}

// ReconnectMin returns the initial reconnect delay.
func (c *Config) ReconnectMin() time.Duration {
	return time.Duration(c.ReconnectMinMS) * time.Millisecond
}

// ReconnectMax returns the reconnect delay cap.
func (c *Config) ReconnectMax() time.Duration {
	return time.Duration(c.ReconnectMaxMS) * time.Millisecond
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CCHAT_PROFILE"); v != "" {
		c.DefaultProfile = v
	}
	if v := os.Getenv("CCHAT_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("CCHAT_SOCKET_URL"); v != "" {
		c.SocketURL = v
	}
	if v := os.Getenv("CCHAT_TYPING_QUIET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TypingQuietMS = n
		}
	}
}
