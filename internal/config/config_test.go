package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "pitkeeper", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "pitkeeper", "pitkeeper.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "pitkeeper", "pitkeeper.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Storage.Path != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDecodes(t *testing.T) {
	path := writeConfig(t, `
[storage]
path = "/tmp/pk.db"
watch = false

[log]
level = "debug"

[suggest]
weight = 1.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path == nil || *cfg.Storage.Path != "/tmp/pk.db" {
		t.Fatalf("unexpected storage path: %v", cfg.Storage.Path)
	}
	if cfg.Storage.Watch == nil || *cfg.Storage.Watch {
		t.Fatalf("expected watch=false")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level")
	}
	if cfg.Log.Path != nil || cfg.Catalog.Path != nil {
		t.Fatalf("unset keys must stay nil")
	}
	if cfg.Suggest.Weight == nil || *cfg.Suggest.Weight != 1.5 {
		t.Fatalf("unexpected weight")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[storage]\npaht = \"typo\"\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[storage]\npath = \"/from/file.db\"\n[log]\nlevel = \"info\"\n")
	t.Setenv("PITKEEPER_DB", "/from/env.db")
	t.Setenv("PITKEEPER_WATCH", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Storage.Path != "/from/env.db" {
		t.Fatalf("env should override file, got %s", *cfg.Storage.Path)
	}
	if cfg.Storage.Watch == nil || !*cfg.Storage.Watch {
		t.Fatalf("expected watch from env")
	}
	if *cfg.Log.Level != "info" {
		t.Fatalf("file value should survive, got %s", *cfg.Log.Level)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("PITKEEPER_SUGGEST_WEIGHT", "lots")
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatalf("expected error for bad weight")
	}
}

func TestParseEnvTypedFields(t *testing.T) {
	t.Setenv("PITKEEPER_SUGGEST_WEIGHT", "2.5")
	t.Setenv("PITKEEPER_WATCH", "false")
	t.Setenv("PITKEEPER_LOG", "")

	var e EnvConfig
	if err := ParseEnv(&e); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if e.SuggestWeight == nil || *e.SuggestWeight != 2.5 {
		t.Fatalf("expected weight 2.5, got %v", e.SuggestWeight)
	}
	if e.Watch == nil || *e.Watch {
		t.Fatalf("expected watch=false, got %v", e.Watch)
	}
	if e.LogPath != nil || e.DBPath != nil {
		t.Fatalf("empty and missing variables should stay unset")
	}

	fc := e.Merge(FileConfig{})
	if fc.Suggest.Weight != e.SuggestWeight || fc.Log.Path != nil {
		t.Fatalf("unexpected merge result: %+v", fc)
	}
}

func TestLoadRejectsBadWatch(t *testing.T) {
	t.Setenv("PITKEEPER_WATCH", "sometimes")
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatalf("expected error for bad watch flag")
	}
}
