package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"ggufctl/internal/logging"
)

// Launch resolves opts.Model, starts llama-server on opts.Port and blocks
// until it answers ready. On any failure after spawn the process is killed
// and reaped before Launch returns.
func (m *Manager) Launch(ctx context.Context, opts LaunchOptions) (*Handle, error) {
	if m.cfg.Resolver == nil {
		return nil, errors.New("manager: no model resolver configured")
	}
	if strings.TrimSpace(m.cfg.LlamaBin) == "" {
		return nil, errors.New("manager: llama-server binary not configured")
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("manager: invalid port %d", opts.Port)
	}
	spec, err := m.cfg.Resolver.Resolve(opts.Model)
	if err != nil {
		launchesTotal.WithLabelValues("resolve_error").Inc()
		return nil, err
	}
	ctxSize := opts.ContextSize
	if ctxSize <= 0 {
		ctxSize = m.cfg.CtxSize
	}

	h := &Handle{m: m, spec: spec, host: m.cfg.Host, port: opts.Port, done: make(chan struct{})}
	if err := m.reserve(h); err != nil {
		launchesTotal.WithLabelValues("port_in_use").Inc()
		return nil, err
	}

	args := buildArgs(m.cfg, spec, opts.Port, ctxSize)
	cmd := exec.Command(m.cfg.LlamaBin, args...)
	h.stderr = newTailBuffer(stderrTailBytes)
	if opts.Verbose {
		cmd.Stdout = m.cfg.ServerOutput
		cmd.Stderr = io.MultiWriter(m.cfg.ServerOutput, h.stderr)
	} else {
		cmd.Stderr = h.stderr
	}
	m.log.Debug().Str("event", "spawn_cmd").Str("cmd", m.cfg.LlamaBin+" "+strings.Join(args, " ")).Msg("llama-server command")
	if err := cmd.Start(); err != nil {
		m.release(h)
		launchesTotal.WithLabelValues("start_error").Inc()
		return nil, fmt.Errorf("start llama-server: %w", err)
	}
	m.mu.Lock()
	h.cmd = cmd
	h.pid = cmd.Process.Pid
	h.started = time.Now()
	m.mu.Unlock()
	runningServers.Inc()
	go h.reap()

	m.log.Info().Str("event", EventSpawnStart).Str("model", spec.ID).Int("pid", h.pid).Int("port", h.port).Msg("llama-server started")
	m.publish(Event{Name: EventSpawnStart, ModelID: spec.ID, Fields: map[string]any{"pid": h.pid, "host": h.host, "port": h.port}})

	var prog *progressLine
	if !opts.Verbose && (m.cfg.ForceProgress || logging.IsTerminal(m.cfg.Progress)) {
		prog = &progressLine{w: m.cfg.Progress, port: h.port, model: spec.DisplayName()}
	}
	check := readinessCheck{
		client:       m.cfg.HTTPClient,
		url:          h.URL(),
		interval:     m.cfg.PollInterval,
		timeout:      m.cfg.StartupTimeout,
		checkTimeout: m.cfg.CheckTimeout,
		exited:       h.done,
		onStatus:     prog.update,
	}
	attempts, err := check.wait(ctx)
	prog.finish()
	if err != nil {
		return nil, m.abortLaunch(h, err)
	}

	h.ready.Store(true)
	startupDuration.Observe(time.Since(h.started).Seconds())
	readinessChecks.Observe(float64(attempts))
	launchesTotal.WithLabelValues("ready").Inc()
	m.log.Info().Str("event", EventSpawnReady).Str("model", spec.ID).Int("pid", h.pid).Str("url", h.URL()).Int("checks", attempts).Msg("llama-server ready")
	m.publish(Event{Name: EventSpawnReady, ModelID: spec.ID, Fields: map[string]any{"pid": h.pid, "url": h.URL(), "checks": attempts}})

	if opts.OpenBrowser {
		if err := m.cfg.OpenURL(h.URL()); err != nil {
			m.log.Warn().Err(err).Str("url", h.URL()).Msg("open browser")
		}
	}
	return h, nil
}

// abortLaunch kills h after a failed readiness wait and decorates err.
func (m *Manager) abortLaunch(h *Handle, err error) error {
	fields := map[string]any{"pid": h.pid}
	switch {
	case errors.Is(err, ErrServerExited):
		exitErr := h.ExitErr()
		tail := strings.TrimSpace(h.stderr.String())
		fields["error"] = fmt.Sprint(exitErr)
		launchesTotal.WithLabelValues("exited").Inc()
		m.log.Error().Str("event", EventSpawnExit).Int("pid", h.pid).AnErr("exit", exitErr).Msg("llama-server exited before ready")
		m.publish(Event{Name: EventSpawnExit, ModelID: h.spec.ID, Fields: fields})
		return fmt.Errorf("%w: %v; stderr tail: %s", ErrServerExited, exitErr, tail)
	case IsServerStartupTimeout(err):
		launchesTotal.WithLabelValues("timeout").Inc()
		m.log.Error().Str("event", EventSpawnTimeout).Int("pid", h.pid).Msg("llama-server not ready in time")
		m.publish(Event{Name: EventSpawnTimeout, ModelID: h.spec.ID, Fields: fields})
	default:
		launchesTotal.WithLabelValues("error").Inc()
		m.log.Error().Err(err).Int("pid", h.pid).Msg("readiness wait failed")
	}
	h.kill()
	return err
}
