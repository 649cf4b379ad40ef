package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dimension != 1024 {
		t.Fatalf("expected default dimension 1024, got %d", cfg.Dimension)
	}
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("dimension: 256\nchunking:\n  size: 500\n  overlap: 50\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dimension != 256 || cfg.Chunking.Size != 500 {
		t.Fatalf("expected file overrides to apply, got %+v", cfg)
	}
}

func TestLoadTOMLFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("dimension = 128\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dimension != 128 {
		t.Fatalf("expected TOML override to apply, got %d", cfg.Dimension)
	}
}

func TestLoadEnvVarOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen: 127.0.0.1:7000\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("RAGCORE_SERVER_LISTEN", "0.0.0.0:9000")
	cfg, err := Load(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Fatalf("expected env override to apply, got %q", cfg.Server.Listen)
	}
}

func TestLoadOverridesTakePrecedenceOverEnv(t *testing.T) {
	t.Setenv("RAGCORE_SERVER_LISTEN", "0.0.0.0:9000")
	listen := "127.0.0.1:1234"
	cfg, err := Load(Options{Overrides: &Overrides{ServerListen: &listen}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != listen {
		t.Fatalf("expected CLI override to win, got %q", cfg.Server.Listen)
	}
}

func TestLoadRejectsInvalidOverlap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chunking:\n  size: 10\n  overlap: 10\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := Load(Options{ConfigPath: path}); err == nil {
		t.Fatalf("expected validation error for overlap == size")
	}
}

func TestSnapshotRedactsAPIKeys(t *testing.T) {
	cfg := Default()
	cfg.Embedder.APIKey = "super-secret"
	snap := Snapshot(&cfg)
	if snap.Embedder.APIKey == "super-secret" {
		t.Fatalf("expected API key to be redacted in snapshot")
	}
	if cfg.Embedder.APIKey != "super-secret" {
		t.Fatalf("Snapshot must not mutate the original config")
	}
}
