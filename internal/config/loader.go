package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Alias maps a short model identifier onto a fixed weights/projection pair,
// both relative to the models directory.
type Alias struct {
	Weights    string `json:"weights" yaml:"weights" toml:"weights"`
	Projection string `json:"projection,omitempty" yaml:"projection,omitempty" toml:"projection,omitempty"`
}

// Config holds runtime parameters for the launcher.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	ModelsDir    string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LlamaBin     string   `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	Host         string   `json:"host" yaml:"host" toml:"host"`
	Port         int      `json:"port" yaml:"port" toml:"port"`
	CtxSize      int      `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	GPULayers    *int     `json:"gpu_layers,omitempty" yaml:"gpu_layers,omitempty" toml:"gpu_layers,omitempty"`
	ExtraArgs    []string `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
	DefaultModel string   `json:"default_model" yaml:"default_model" toml:"default_model"`

	StartupTimeoutSec int `json:"startup_timeout_sec" yaml:"startup_timeout_sec" toml:"startup_timeout_sec"`
	PollIntervalMS    int `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	StopGraceSec      int `json:"stop_grace_sec" yaml:"stop_grace_sec" toml:"stop_grace_sec"`

	APIKey       string `json:"api_key" yaml:"api_key" toml:"api_key"`
	GrammarsDir  string `json:"grammars_dir" yaml:"grammars_dir" toml:"grammars_dir"`
	SchemasDir   string `json:"schemas_dir" yaml:"schemas_dir" toml:"schemas_dir"`
	ImageMaxSide int    `json:"image_max_side" yaml:"image_max_side" toml:"image_max_side"`

	LogLevel      string `json:"log_level" yaml:"log_level" toml:"log_level"`
	ServerLogFile string `json:"server_log_file" yaml:"server_log_file" toml:"server_log_file"`

	// Control API (serve command)
	Addr             string   `json:"addr" yaml:"addr" toml:"addr"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	PromptTimeoutSec int      `json:"prompt_timeout_sec" yaml:"prompt_timeout_sec" toml:"prompt_timeout_sec"`
	MaxBodyBytes     int      `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	Aliases map[string]Alias `json:"aliases" yaml:"aliases" toml:"aliases"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}
