package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server  ServerConfig `yaml:"server"`
	Backend struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`
	Redis RedisConfig `yaml:"redis"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMergesEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
backend:
  url: http://localhost:9000
  timeout: 10s
redis:
  addr: localhost:6379
`)
	writeFile(t, dir, "production.yaml", `
backend:
  url: https://api.example.com
redis:
  password: ${REDIS_SECRET}
`)
	writeFile(t, dir, "secrets.env", "# comment\nREDIS_SECRET='s3cret'\n")

	var cfg testConfig
	if err := Load("production", dir, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != ":8080" {
		t.Errorf("expected port :8080, got %q", cfg.Server.Port)
	}
	if cfg.Backend.URL != "https://api.example.com" {
		t.Errorf("expected overlay url, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("expected base timeout to survive merge, got %v", cfg.Backend.Timeout)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected nested base key to survive merge, got %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "s3cret" {
		t.Errorf("expected secret substitution, got %q", cfg.Redis.Password)
	}
}

func TestLoadMissingEnvFileUsesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":9090\"\n")

	var cfg testConfig
	if err := Load("staging", dir, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Port)
	}
}

func TestLoadMissingBaseFails(t *testing.T) {
	var cfg testConfig
	if err := Load("local", t.TempDir(), &cfg); err == nil {
		t.Fatal("expected error for missing base.yaml")
	}
}

func TestSubstituteStringFallsBackToProcessEnv(t *testing.T) {
	t.Setenv("TASKHUB_TEST_VAR", "from-env")
	got := substituteString("prefix-${TASKHUB_TEST_VAR}", map[string]string{})
	if got != "prefix-from-env" {
		t.Errorf("expected prefix-from-env, got %q", got)
	}
}
