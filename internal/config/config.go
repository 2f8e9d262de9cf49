package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	APIURL string `yaml:"api_url"`
	WSURL  string `yaml:"ws_url"`

	InitialClockSec   int `yaml:"initial_clock_sec"`
	TickIntervalMs    int `yaml:"tick_interval_ms"`
	WSPingIntervalSec int `yaml:"ws_ping_interval_sec"`
	WSDialTimeoutSec  int `yaml:"ws_dial_timeout_sec"`
	HTTPTimeoutSec    int `yaml:"http_timeout_sec"`

	RedisURL    string `yaml:"redis_url"`
	TokenTTLSec int    `yaml:"token_ttl_sec"`

	MessagesDir string `yaml:"messages_dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
	HistoryFile string `yaml:"history_file"`
}

func defaults() *AppConfig {
	return &AppConfig{
		APIURL:            "http://localhost:8080/api",
		WSURL:             "ws://localhost:8081/com/chess",
		InitialClockSec:   600,
		TickIntervalMs:    1000,
		WSPingIntervalSec: 30,
		WSDialTimeoutSec:  10,
		HTTPTimeoutSec:    10,
		TokenTTLSec:       86400,
		HistoryFile:       ".chess_history",
	}
}

// Load reads .env (if present), the optional CLIENT_CONFIG_FILE overlay and
// then the environment, in that order of increasing precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CLIENT_CONFIG_FILE")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("ARBITER_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ARBITER_WS_URL")); v != "" {
		cfg.WSURL = v
	}
	cfg.RedisURL = envString("REDIS_URL", cfg.RedisURL)
	cfg.MessagesDir = envString("MESSAGES_DIR", cfg.MessagesDir)
	cfg.SnapshotDir = envString("SNAPSHOT_DIR", cfg.SnapshotDir)
	cfg.HistoryFile = envString("HISTORY_FILE", cfg.HistoryFile)

	ints := []struct {
		key string
		dst *int
	}{
		{"INITIAL_CLOCK_SEC", &cfg.InitialClockSec},
		{"TICK_INTERVAL_MS", &cfg.TickIntervalMs},
		{"WS_PING_INTERVAL_SEC", &cfg.WSPingIntervalSec},
		{"WS_DIAL_TIMEOUT_SEC", &cfg.WSDialTimeoutSec},
		{"HTTP_TIMEOUT_SEC", &cfg.HTTPTimeoutSec},
		{"TOKEN_TTL_SEC", &cfg.TokenTTLSec},
	}
	for _, it := range ints {
		v := strings.TrimSpace(os.Getenv(it.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.key, err)
		}
		*it.dst = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// envString returns the trimmed value of key, or def when it is unset or blank.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Validate checks URL schemes and that every numeric setting is positive.
func (c *AppConfig) Validate() error {
	if err := checkURL("ARBITER_API_URL", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("ARBITER_WS_URL", c.WSURL, "ws", "wss"); err != nil {
		return err
	}
	for name, v := range map[string]int{
		"INITIAL_CLOCK_SEC":    c.InitialClockSec,
		"TICK_INTERVAL_MS":     c.TickIntervalMs,
		"WS_PING_INTERVAL_SEC": c.WSPingIntervalSec,
		"WS_DIAL_TIMEOUT_SEC":  c.WSDialTimeoutSec,
		"HTTP_TIMEOUT_SEC":     c.HTTPTimeoutSec,
		"TOKEN_TTL_SEC":        c.TokenTTLSec,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be a %s URL with a host: %q", name, strings.Join(schemes, "/"), raw)
}

func (c *AppConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *AppConfig) PingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalSec) * time.Second
}

func (c *AppConfig) DialTimeout() time.Duration {
	return time.Duration(c.WSDialTimeoutSec) * time.Second
}

func (c *AppConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSec) * time.Second
}
