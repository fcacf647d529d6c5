package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"ggufctl/internal/config"
	"ggufctl/internal/logging"
)

// dotEnvFile is loaded from the working directory before env overrides apply.
const dotEnvFile = ".env"

// lookupEnv is swapped out by tests.
var lookupEnv = os.LookupEnv

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	port       int
}

// loadConfig layers configuration: flag > env > file > default. Defaults are
// applied later by app.New; changed reports whether a persistent flag was set.
func loadConfig(g *globalFlags, changed func(name string) bool) (config.Config, error) {
	var cfg config.Config
	if g.configPath != "" {
		c, err := config.Load(g.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, lookupEnv); err != nil {
		return cfg, err
	}
	if changed("port") {
		cfg.Port = g.port
	}
	if changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	level := cfg.LogLevel
	if level == "" {
		level = config.DefaultLogLevel
	}
	return logging.New(logging.Options{Level: level, Out: out})
}
