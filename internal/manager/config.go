package manager

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	DefaultHost           = "127.0.0.1"
	DefaultCtxSize        = 8192
	DefaultGPULayers      = 99
	DefaultPollInterval   = 200 * time.Millisecond
	DefaultStartupTimeout = 5 * time.Minute
	DefaultStopGrace      = 5 * time.Second
	defaultCheckTimeout   = 2 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Resolver maps model identifiers onto weight files.
	Resolver Resolver

	// llama-server invocation
	LlamaBin  string
	Host      string
	CtxSize   int
	GPULayers *int // nil selects DefaultGPULayers; negative omits -ngl
	ExtraArgs []string

	// readiness and shutdown
	PollInterval   time.Duration
	StartupTimeout time.Duration
	StopGrace      time.Duration
	CheckTimeout   time.Duration

	// ServerOutput receives llama-server stdout/stderr in verbose launches.
	ServerOutput io.Writer
	// Progress receives the status line redrawn while waiting.
	Progress io.Writer
	// ForceProgress draws the status line even when Progress is not a terminal.
	ForceProgress bool
	// OpenURL opens the ready endpoint when requested; defaults to the system browser.
	OpenURL func(string) error

	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.CtxSize <= 0 {
		c.CtxSize = DefaultCtxSize
	}
	if c.GPULayers == nil {
		n := DefaultGPULayers
		c.GPULayers = &n
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.StopGrace <= 0 {
		c.StopGrace = DefaultStopGrace
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = defaultCheckTimeout
	}
	if c.ServerOutput == nil {
		c.ServerOutput = os.Stderr
	}
	if c.Progress == nil {
		c.Progress = os.Stdout
	}
	if c.OpenURL == nil {
		c.OpenURL = browser.OpenURL
	}
	if c.HTTPClient == nil {
		// Timeout=0: every check carries its own context deadline.
		c.HTTPClient = &http.Client{Timeout: 0}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
