package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options configures config loading.
type Options struct {
	// ConfigPath, if set, is read as a YAML file, or as TOML when its
	// extension is ".toml" (shared/config.py's YAML-first / alternate
	// settings loader split).
	ConfigPath string
	// EnvFile, if set, is parsed with godotenv and overlaid after the
	// config file but before process environment variables.
	EnvFile   string
	Overrides *Overrides
}

// Overrides holds CLI flag values that take precedence over everything
// else. Only non-nil fields are applied.
type Overrides struct {
	ServerListen  *string
	EmbedderModel *string
	GeneratorModel *string
	EmbedderAPIKey *string
	GeneratorAPIKey *string
}

// Load builds config with precedence: defaults -> config file -> .env ->
// process environment -> CLI overrides -> validate.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.ConfigPath != "" {
		if err := loadFile(opts.ConfigPath, &cfg); err != nil {
			return nil, err
		}
	}

	envOverlay := map[string]string{}
	if opts.EnvFile != "" {
		parsed, err := godotenv.Read(opts.EnvFile)
		if err == nil {
			envOverlay = parsed
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := envOverlay[key]
		return v, ok
	}

	applyEnv(&cfg, lookup)

	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return &decodeError{format: "TOML", path: path, cause: err}
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &decodeError{format: "YAML", path: path, cause: err}
	}
	return nil
}

type decodeError struct {
	format string
	path   string
	cause  error
}

func (e *decodeError) Error() string {
	return "CONFIG_INVALID: malformed " + e.format + " in " + e.path + ": " + e.cause.Error()
}

func (e *decodeError) Unwrap() error { return e.cause }

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("RAGCORE_EMBEDDER_API_KEY"); ok {
		cfg.Embedder.APIKey = v
	}
	if v, ok := lookup("RAGCORE_GENERATOR_API_KEY"); ok {
		cfg.Generator.APIKey = v
	}
	if v, ok := lookup("RAGCORE_SERVER_LISTEN"); ok {
		cfg.Server.Listen = v
	}
	if v, ok := lookup("RAGCORE_SIMILARITY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retrieval.SimilarityThreshold = f
		}
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.ServerListen != nil {
		cfg.Server.Listen = *o.ServerListen
	}
	if o.EmbedderModel != nil {
		cfg.Embedder.ModelPath = *o.EmbedderModel
	}
	if o.GeneratorModel != nil {
		cfg.Generator.Model = *o.GeneratorModel
	}
	if o.EmbedderAPIKey != nil {
		cfg.Embedder.APIKey = *o.EmbedderAPIKey
	}
	if o.GeneratorAPIKey != nil {
		cfg.Generator.APIKey = *o.GeneratorAPIKey
	}
}
