package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIKey, "key-123")
	t.Setenv(EnvPassword, "rahasia")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AI.APIKey != "key-123" || cfg.BasicConfig.AppPassword != "rahasia" {
		t.Fatalf("env not applied: %#v", cfg)
	}
	if cfg.AI.Provider != DefaultProvider || cfg.AI.Model != DefaultModel {
		t.Fatalf("unexpected ai defaults: %#v", cfg.AI)
	}
	if cfg.BasicConfig.ServerAddress != DefaultAddress {
		t.Fatalf("unexpected address %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.Databases["sqlite3"].DSN != "database.db" {
		t.Fatalf("unexpected sqlite dsn %q", cfg.Databases["sqlite3"].DSN)
	}
	b := cfg.BasicConfig
	if b.MinWorkers != 1 || b.MaxWorkers != 4 || b.QueueSize != 16 || b.SessionCleanupCron != "@hourly" {
		t.Fatalf("unexpected worker defaults: %#v", b)
	}
	if cfg.WorkerIdleTimeout() != 5*time.Minute || cfg.ExtractTimeout() != 120*time.Second || cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("unexpected durations: idle=%s extract=%s ttl=%s", cfg.WorkerIdleTimeout(), cfg.ExtractTimeout(), cfg.SessionTTL())
	}
}

func TestLoadRequiresAPIKeyAndPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvPassword, "rahasia")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}

	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvPassword, "")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvPassword) {
		t.Fatalf("expected missing password error, got %v", err)
	}
}

func TestLoadYAMLResolvesSqlitePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvPassword, "")
	path := filepath.Join(dir, "jadwalku.yaml")
	body := `basic_config:
  server_address: ":9000"
  app_password: "dari-file"
  max_workers: 3
databases:
  sqlite3:
    dsn: "data/jadwal.db"
ai:
  provider: openai
  model: gpt-4o-mini
  api_key: sk-test
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":9000" || cfg.BasicConfig.MaxWorkers != 3 {
		t.Fatalf("basic config not decoded: %#v", cfg.BasicConfig)
	}
	if want := filepath.Join(dir, "data/jadwal.db"); cfg.Databases["sqlite3"].DSN != want {
		t.Fatalf("dsn not resolved: want %s got %s", want, cfg.Databases["sqlite3"].DSN)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.Model != "gpt-4o-mini" {
		t.Fatalf("ai config not decoded: %#v", cfg.AI)
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvPassword, "")
	path := filepath.Join(dir, "config.json")
	body := `{"basic_config":{"app_password":"pw","timezone":"UTC"},"ai":{"api_key":"from-file"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.AI.APIKey)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := &Config{
		BasicConfig: BasicConfig{AppPassword: "pw", Timezone: "Mars/Olympus"},
		AI:          AIConfig{APIKey: "k"},
	}
	cfg.Normalize()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected timezone error")
	}
}
