package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"CLIENT_CONFIG_FILE", "ARBITER_API_URL", "ARBITER_WS_URL", "INITIAL_CLOCK_SEC",
	"TICK_INTERVAL_MS", "WS_PING_INTERVAL_SEC", "WS_DIAL_TIMEOUT_SEC", "HTTP_TIMEOUT_SEC",
	"REDIS_URL", "TOKEN_TTL_SEC", "MESSAGES_DIR", "SNAPSHOT_DIR", "HISTORY_FILE",
}

// cleanEnv isolates a test from the caller's environment and any .env file.
func cleanEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Setenv("HISTORY_FILE", ".chess_history")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080/api" || cfg.WSURL != "ws://localhost:8081/com/chess" {
		t.Fatalf("urls = %q %q", cfg.APIURL, cfg.WSURL)
	}
	if cfg.InitialClockSec != 600 || cfg.TickInterval() != time.Second || cfg.TokenTTL() != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisURL != "" || cfg.HistoryFile != ".chess_history" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ARBITER_WS_URL", "wss://chess.example.com/com/chess")
	t.Setenv("INITIAL_CLOCK_SEC", "300")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WSURL != "wss://chess.example.com/com/chess" || cfg.InitialClockSec != 300 || cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_DotEnvAndFileOverlay(t *testing.T) {
	dir := cleanEnv(t)
	yml := filepath.Join(dir, "client.yaml")
	if err := os.WriteFile(yml, []byte("initial_clock_sec: 180\nsnapshot_dir: shots\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TICK_INTERVAL_MS=250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables already present, so drop the blank.
	os.Unsetenv("TICK_INTERVAL_MS")
	t.Setenv("CLIENT_CONFIG_FILE", yml)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TICK_INTERVAL_MS") })
	if cfg.InitialClockSec != 180 || cfg.SnapshotDir != "shots" {
		t.Fatalf("yaml overlay not applied: %+v", cfg)
	}
	if cfg.TickInterval() != 250*time.Millisecond {
		t.Fatalf(".env not applied: %v", cfg.TickInterval())
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"ARBITER_API_URL":   "ws://wrong-scheme",
		"ARBITER_WS_URL":    "http://localhost:8081",
		"INITIAL_CLOCK_SEC": "0",
		"TICK_INTERVAL_MS":  "fast",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestLoad_BlankEnvKeepsFileValues(t *testing.T) {
	dir := cleanEnv(t)
	yml := filepath.Join(dir, "client.yaml")
	body := "snapshot_dir: shots\nmessages_dir: msgs\nredis_url: redis://localhost:6379/2\nhistory_file: .hist\n"
	if err := os.WriteFile(yml, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLIENT_CONFIG_FILE", yml)
	t.Setenv("SNAPSHOT_DIR", "")
	t.Setenv("MESSAGES_DIR", "  ")
	t.Setenv("HISTORY_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SnapshotDir != "shots" || cfg.MessagesDir != "msgs" || cfg.RedisURL != "redis://localhost:6379/2" || cfg.HistoryFile != ".hist" {
		t.Fatalf("blank env overrode file values: %+v", cfg)
	}

	t.Setenv("SNAPSHOT_DIR", "elsewhere")
	if cfg, err = Load(); err != nil || cfg.SnapshotDir != "elsewhere" {
		t.Fatalf("env did not override file: %+v, %v", cfg, err)
	}
}
