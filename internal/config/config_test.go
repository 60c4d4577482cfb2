package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	base := "gateway:\n  url: http://gw.local\naggregator:\n  fan_out_limit: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "local")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.BaseURL != "http://gw.local" {
		t.Errorf("expected gateway url from file, got %q", cfg.Gateway.BaseURL)
	}
	if cfg.Aggregator.FanOutLimit != 3 {
		t.Errorf("expected fan-out limit 3, got %d", cfg.Aggregator.FanOutLimit)
	}
	if cfg.Gateway.DoneLabel != "Completed" || cfg.Session.TTL != 24*time.Hour {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "local")
	t.Setenv("GATEWAY_URL", "https://api.example.com")
	t.Setenv("FAN_OUT_LIMIT", "2")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.BaseURL != "https://api.example.com" || cfg.Aggregator.FanOutLimit != 2 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Session.TTL != 90*time.Minute {
		t.Errorf("expected 90m ttl, got %v", cfg.Session.TTL)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis enabled from env, got %+v", cfg.Redis)
	}
}

func TestInvalidFanOutLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAN_OUT_LIMIT", "many")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid FAN_OUT_LIMIT")
	}
}
