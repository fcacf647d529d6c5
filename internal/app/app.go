// Package app wires configuration, the model registry, the lifecycle
// manager and the request client into the operations the CLI and the
// control API expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ggufctl/internal/assets"
	"ggufctl/internal/client"
	"ggufctl/internal/config"
	"ggufctl/internal/logging"
	"ggufctl/internal/manager"
	"ggufctl/internal/payload"
	"ggufctl/internal/registry"
	"ggufctl/pkg/types"
)

// eventHistory bounds the lifecycle events kept for GET /events.
const eventHistory = 256

// Options carries process-level collaborators that are not configuration.
type Options struct {
	Logger zerolog.Logger
	// Progress receives the waiting status line; defaults to os.Stdout.
	Progress io.Writer
	// ForceProgress draws the status line even when Progress is not a terminal.
	ForceProgress bool
	// OpenURL overrides the browser opener.
	OpenURL func(string) error
}

// App is one launcher session: at most one managed server plus a client
// pointed at it (or at an externally started server).
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	reg     *registry.Registry
	mgr     *manager.Manager
	events  *manager.MemoryPublisher
	store   assets.Store
	builder payload.Builder
	sink    io.Closer

	mu      sync.Mutex
	handle  *manager.Handle
	client  *client.Client
	onClose func()

	closeOnce sync.Once
	closeErr  error
}

// New builds an App from cfg (defaults are applied here).
func New(cfg config.Config, opts Options) (*App, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	aliases := make(map[string]registry.Alias, len(cfg.Aliases))
	for k, v := range cfg.Aliases {
		aliases[k] = registry.Alias{Weights: v.Weights, Projection: v.Projection}
	}
	reg, err := registry.New(cfg.ModelsDir, aliases)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		log:     opts.Logger,
		reg:     reg,
		events:  manager.NewBoundedMemoryPublisher(eventHistory),
		store:   assets.Store{GrammarsDir: cfg.GrammarsDir, SchemasDir: cfg.SchemasDir},
		builder: payload.Builder{ImageMaxSide: cfg.ImageMaxSide},
	}
	var serverOut io.Writer
	if cfg.ServerLogFile != "" {
		sink, err := logging.ServerLogSink(cfg.ServerLogFile)
		if err != nil {
			return nil, fmt.Errorf("server log file: %w", err)
		}
		a.sink = sink
		serverOut = sink
	}
	gpu := *cfg.GPULayers
	a.mgr = manager.NewWithConfig(manager.ManagerConfig{
		Resolver:       reg,
		LlamaBin:       cfg.LlamaBin,
		Host:           cfg.Host,
		CtxSize:        cfg.CtxSize,
		GPULayers:      &gpu,
		ExtraArgs:      cfg.ExtraArgs,
		PollInterval:   cfg.PollInterval(),
		StartupTimeout: cfg.StartupTimeout(),
		StopGrace:      cfg.StopGrace(),
		ServerOutput:   serverOut,
		Progress:       opts.Progress,
		ForceProgress:  opts.ForceProgress,
		OpenURL:        opts.OpenURL,
		Logger:         &a.log,
	})
	a.mgr.SetEventPublisher(a.events)
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the session logger.
func (a *App) Logger() zerolog.Logger { return a.log }

// Registry returns the model registry.
func (a *App) Registry() *registry.Registry { return a.reg }

// LaunchOptions mirrors manager.LaunchOptions with config fallbacks.
type LaunchOptions struct {
	Model       string // "" uses the configured default model
	Port        int    // 0 uses the configured port; negative picks a free one
	ContextSize int
	Verbose     bool
	OpenBrowser bool
}

// Launch starts the managed server and points the client at it.
func (a *App) Launch(ctx context.Context, opts LaunchOptions) (*manager.Handle, error) {
	if opts.Model == "" {
		opts.Model = a.cfg.DefaultModel
	}
	switch {
	case opts.Port == 0:
		opts.Port = a.cfg.Port
	case opts.Port < 0:
		p, err := manager.FreePort(a.cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("pick port: %w", err)
		}
		opts.Port = p
	}
	h, err := a.mgr.Launch(ctx, manager.LaunchOptions{
		Model:       opts.Model,
		Port:        opts.Port,
		ContextSize: opts.ContextSize,
		Verbose:     opts.Verbose,
		OpenBrowser: opts.OpenBrowser,
	})
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.handle = h
	a.client = a.newClient(h.URL())
	a.mu.Unlock()
	return h, nil
}

// Attach points the client at an already running server.
func (a *App) Attach(baseURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = a.newClient(baseURL)
}

func (a *App) newClient(baseURL string) *client.Client {
	return client.New(baseURL,
		client.WithAPIKey(a.cfg.APIKey),
		client.WithBuilder(a.builder),
		client.WithLogger(a.log),
	)
}

// Handle returns the managed server handle, if one was launched.
func (a *App) Handle() *manager.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// BuildRequest turns an API prompt request into a payload request, loading
// any referenced grammar, schema or image.
func (a *App) BuildRequest(ctx context.Context, req types.PromptRequest) (payload.Request, error) {
	proto, err := payload.ParseProtocol(req.Protocol)
	if err != nil {
		return payload.Request{}, err
	}
	out := payload.Request{Protocol: proto, Prompt: req.Prompt, SystemPrompt: req.System}
	if h := a.Handle(); h != nil {
		out.Model = h.Model().ID
	}
	if req.Grammar != "" {
		g, err := a.store.Grammar(req.Grammar)
		if err != nil {
			return payload.Request{}, err
		}
		out.Constraint.Grammar = g
	}
	if req.Schema != "" {
		s, err := a.store.Schema(req.Schema)
		if err != nil {
			return payload.Request{}, err
		}
		out.Constraint.Schema = s
	}
	if req.Image != "" {
		// The native API only takes inline bytes.
		img, err := assets.LoadImage(ctx, req.Image, proto == payload.NativeStyle, http.DefaultClient)
		if err != nil {
			return payload.Request{}, err
		}
		out.Image = img
	}
	return out, nil
}

// Prompt sends req to the current server and returns the generated text.
func (a *App) Prompt(ctx context.Context, req types.PromptRequest) (types.PromptResponse, error) {
	a.mu.Lock()
	c := a.client
	a.mu.Unlock()
	if c == nil {
		return types.PromptResponse{}, errors.New("no llama-server: launch or attach first")
	}
	preq, err := a.BuildRequest(ctx, req)
	if err != nil {
		return types.PromptResponse{}, err
	}
	content, err := c.Prompt(ctx, preq)
	if err != nil {
		return types.PromptResponse{}, err
	}
	return types.PromptResponse{Content: content, Protocol: preq.Protocol.String()}, nil
}

// ListModels enumerates the models directory.
func (a *App) ListModels() ([]types.Model, error) { return a.reg.List() }

// Status reports the managed server.
func (a *App) Status() types.StatusResponse {
	now := time.Now()
	st := types.StatusResponse{ServerTimeUnix: now.Unix()}
	h := a.Handle()
	if h == nil {
		return st
	}
	st.Model = h.Model()
	st.URL = h.URL()
	st.Port = h.Port()
	st.PID = h.PID()
	st.Ready = h.Ready()
	if st.Ready {
		st.UptimeSeconds = int64(now.Sub(h.StartedAt()).Seconds())
	}
	return st
}

// Ready reports whether requests can be served.
func (a *App) Ready() bool {
	if h := a.Handle(); h != nil {
		return h.Ready()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client != nil
}

// Events returns recent lifecycle events, oldest first.
func (a *App) Events() []types.Event {
	evs := a.events.Events()
	out := make([]types.Event, 0, len(evs))
	for _, e := range evs {
		out = append(out, types.Event{Name: e.Name, Model: e.ModelID, Fields: e.Fields})
	}
	return out
}

// OnShutdown registers fn to run after Shutdown has terminated the server.
func (a *App) OnShutdown(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onClose = fn
}

// Shutdown terminates every server this App launched and runs the
// OnShutdown hook. Concurrent and later callers block until the first
// call has finished and then return its result.
func (a *App) Shutdown() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		hook := a.onClose
		a.mu.Unlock()

		err := a.mgr.TerminateAll()
		if a.sink != nil {
			if cerr := a.sink.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		a.closeErr = err
		if hook != nil {
			hook()
		}
	})
	return a.closeErr
}
