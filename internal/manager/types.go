package manager

import (
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"ggufctl/pkg/types"
)

// Resolver maps a model identifier onto its weight files. *registry.Registry
// satisfies it.
type Resolver interface {
	Resolve(name string) (types.ModelSpec, error)
}

// LaunchOptions selects what Launch starts and how.
type LaunchOptions struct {
	Model       string
	Port        int
	ContextSize int // 0 uses ManagerConfig.CtxSize
	Verbose     bool
	OpenBrowser bool
}

// Handle is one llama-server process owned by a Manager. It is created by
// Launch and becomes inert once the process has been reaped.
type Handle struct {
	m       *Manager
	cmd     *exec.Cmd
	spec    types.ModelSpec
	host    string
	port    int
	pid     int
	started time.Time
	stderr  *tailBuffer

	ready    atomic.Bool
	stopping atomic.Bool
	done     chan struct{}
	exitErr  error // valid after done is closed

	stopOnce sync.Once
	stopErr  error
}

// URL is the base URL requests should target.
func (h *Handle) URL() string { return fmt.Sprintf("http://%s:%d", dialHost(h.host), h.port) }

func (h *Handle) Port() int              { return h.port }
func (h *Handle) PID() int               { return h.pid }
func (h *Handle) Model() types.ModelSpec { return h.spec }
func (h *Handle) StartedAt() time.Time   { return h.started }
func (h *Handle) Ready() bool            { return h.ready.Load() && !h.Exited() }
func (h *Handle) Done() <-chan struct{}  { return h.done }

// Stopping reports whether Terminate (or an aborted launch) has begun
// stopping the process. It is set before the process is signalled.
func (h *Handle) Stopping() bool { return h.stopping.Load() }

// Exited reports whether the process has been reaped.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ExitErr returns the process exit status once Done is closed.
func (h *Handle) ExitErr() error {
	<-h.done
	return h.exitErr
}

// dialHost turns wildcard bind addresses into something dialable.
func dialHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return "127.0.0.1"
	}
	return host
}
