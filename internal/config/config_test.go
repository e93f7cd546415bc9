package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studydesk", DefaultConfigFileName)

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Errorf("expected first launch to create the file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "studydesk", DefaultDBName) {
		t.Errorf("expected db path next to config, got %s", cfg.DBPath)
	}
	if cfg.Keys.Quit != "q" || cfg.DefaultView != "inbox" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	_, created, err = LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	if created {
		t.Errorf("expected existing file to be reused")
	}
}

func TestLoadOrCreateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	body := `
db_path = "/var/lib/studydesk/tasks.db"
default_view = "today"

[server]
addr = ":9000"

[inference]
fallback_due_days = 2

[keys]
quit = "ctrl+q"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != "/var/lib/studydesk/tasks.db" || cfg.DefaultView != "today" {
		t.Errorf("unexpected top-level values %+v", cfg)
	}
	if cfg.Server.Addr != ":9000" || cfg.Inference.FallbackDueDays != 2 {
		t.Errorf("unexpected section values %+v / %+v", cfg.Server, cfg.Inference)
	}
	if cfg.Keys.Quit != "ctrl+q" || cfg.Keys.Add != "a" {
		t.Errorf("expected overridden quit and default add, got %+v", cfg.Keys)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("STUDYDESK_TOKEN=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STUDYDESK_TOKEN", "")
	os.Unsetenv("STUDYDESK_TOKEN")
	t.Setenv("STUDYDESK_ADDR", ":7000")
	t.Setenv("STUDYDESK_FALLBACK_DUE_DAYS", "5")

	cfg, _, err := Load(filepath.Join(dir, DefaultConfigFileName), envFile, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("expected env addr, got %s", cfg.Server.Addr)
	}
	if cfg.Client.Token != "from-dotenv" {
		t.Errorf("expected token from .env, got %q", cfg.Client.Token)
	}
	if cfg.Inference.FallbackDueDays != 5 {
		t.Errorf("expected 5 fallback days, got %d", cfg.Inference.FallbackDueDays)
	}

	t.Setenv("STUDYDESK_FALLBACK_DUE_DAYS", "soon")
	if err := ApplyEnv(&cfg); err == nil {
		t.Errorf("expected error for non-numeric fallback days")
	}
}

func TestResolveConfigPathHonoursEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("ResolveConfigPath: %v", err)
	}
	if got != "/tmp/custom.toml" {
		t.Errorf("expected env path, got %s", got)
	}
}
