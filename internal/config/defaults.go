package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by WithDefaults when the corresponding field is unset.
const (
	DefaultModelsDir         = "data/models"
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 8080
	DefaultCtxSize           = 8192
	DefaultGPULayers         = 99
	DefaultStartupTimeoutSec = 300
	DefaultPollIntervalMS    = 200
	DefaultStopGraceSec      = 5
	DefaultAPIKey            = "no-key"
	DefaultGrammarsDir       = "grammars"
	DefaultSchemasDir        = "json_schema"
	DefaultLogLevel          = "info"
	DefaultAddr              = "127.0.0.1:8089"
	DefaultModelID           = "gemma"
	DefaultPromptTimeoutSec  = 600
	DefaultMaxBodyBytes      = 1 << 20
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "GGUFCTL_"

// DefaultAliases returns the built-in multimodal aliases.
func DefaultAliases() map[string]Alias {
	return map[string]Alias{
		"gemma": {
			Weights:    "gemma/gemma-3-4b-it-Q4_K_M.gguf",
			Projection: "gemma/mmproj-F16.gguf",
		},
		"smolvlm": {
			Weights:    "smolvlm/SmolVLM-Instruct-Q8_0.gguf",
			Projection: "smolvlm/mmproj-SmolVLM-Instruct-Q8_0.gguf",
		},
	}
}

func defaultLlamaBin() string {
	if runtime.GOOS == "windows" {
		return "llama-server.exe"
	}
	return "llama-server"
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.LlamaBin == "" {
		c.LlamaBin = defaultLlamaBin()
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.CtxSize <= 0 {
		c.CtxSize = DefaultCtxSize
	}
	if c.GPULayers == nil {
		n := DefaultGPULayers
		c.GPULayers = &n
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModelID
	}
	if c.StartupTimeoutSec <= 0 {
		c.StartupTimeoutSec = DefaultStartupTimeoutSec
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = DefaultPollIntervalMS
	}
	if c.StopGraceSec <= 0 {
		c.StopGraceSec = DefaultStopGraceSec
	}
	if c.APIKey == "" {
		c.APIKey = DefaultAPIKey
	}
	if c.GrammarsDir == "" {
		c.GrammarsDir = DefaultGrammarsDir
	}
	if c.SchemasDir == "" {
		c.SchemasDir = DefaultSchemasDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.PromptTimeoutSec <= 0 {
		c.PromptTimeoutSec = DefaultPromptTimeoutSec
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	aliases := DefaultAliases()
	for k, v := range c.Aliases {
		aliases[k] = v
	}
	c.Aliases = aliases
	return c
}

// StartupTimeout is the readiness poll budget.
func (c Config) StartupTimeout() time.Duration {
	return time.Duration(c.StartupTimeoutSec) * time.Second
}

// PollInterval is the fixed backoff between readiness checks.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// PromptTimeout bounds one POST /prompt on the control API.
func (c Config) PromptTimeout() time.Duration {
	return time.Duration(c.PromptTimeoutSec) * time.Second
}

// StopGrace is how long Terminate waits after SIGTERM before killing.
func (c Config) StopGrace() time.Duration {
	return time.Duration(c.StopGraceSec) * time.Second
}

// ApplyEnv overrides fields from GGUFCTL_* variables using lookup
// (usually os.LookupEnv). Malformed numbers are reported, not ignored.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("MODELS_DIR", &c.ModelsDir)
	str("LLAMA_BIN", &c.LlamaBin)
	str("HOST", &c.Host)
	str("DEFAULT_MODEL", &c.DefaultModel)
	str("API_KEY", &c.APIKey)
	str("GRAMMARS_DIR", &c.GrammarsDir)
	str("SCHEMAS_DIR", &c.SchemasDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("SERVER_LOG_FILE", &c.ServerLogFile)
	str("ADDR", &c.Addr)
	for key, dst := range map[string]*int{
		"PORT":                &c.Port,
		"CTX_SIZE":            &c.CtxSize,
		"STARTUP_TIMEOUT_SEC": &c.StartupTimeoutSec,
		"POLL_INTERVAL_MS":    &c.PollIntervalMS,
		"STOP_GRACE_SEC":      &c.StopGraceSec,
		"IMAGE_MAX_SIDE":      &c.ImageMaxSide,
		"PROMPT_TIMEOUT_SEC":  &c.PromptTimeoutSec,
		"MAX_BODY_BYTES":      &c.MaxBodyBytes,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvPrefix + "GPU_LAYERS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sGPU_LAYERS: %w", EnvPrefix, err)
		}
		c.GPULayers = &n
	}
	if v, ok := lookup(EnvPrefix + "EXTRA_ARGS"); ok && v != "" {
		c.ExtraArgs = strings.Fields(v)
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitCSV(v)
	}
	return nil
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports configuration values that cannot work at all.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.CtxSize < 0 {
		return fmt.Errorf("ctx_size must not be negative: %d", c.CtxSize)
	}
	for name, a := range c.Aliases {
		if strings.TrimSpace(a.Weights) == "" {
			return fmt.Errorf("alias %q has no weights", name)
		}
	}
	return nil
}
