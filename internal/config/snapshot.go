package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Snapshot returns a copy of cfg safe to persist or log: non-empty API
// keys are replaced with the fixed marker "<redacted>".
func Snapshot(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.Embedder.APIKey = redactSecret(cfg.Embedder.APIKey)
	c.Generator.APIKey = redactSecret(cfg.Generator.APIKey)
	return &c
}

func redactSecret(value string) string {
	if value == "" {
		return ""
	}
	return "<redacted>"
}

// WriteSnapshot writes the redacted config snapshot to
// stateDir/config.snapshot.yaml, for status/debug output.
func WriteSnapshot(stateDir string, cfg *Config) error {
	snap := Snapshot(cfg)
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stateDir, "config.snapshot.yaml"), data, 0o600)
}
