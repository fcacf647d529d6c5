package manager

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// reap owns cmd.Wait for the lifetime of the process.
func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.exitErr = err
	close(h.done)
	runningServers.Dec()
	h.m.release(h)
	if h.stopping.Load() || !h.ready.Load() {
		return
	}
	h.m.log.Warn().Str("event", EventSpawnExit).Str("model", h.spec.ID).Int("pid", h.pid).AnErr("exit", err).Msg("llama-server exited")
	fields := map[string]any{"pid": h.pid}
	if err != nil {
		fields["error"] = err.Error()
	}
	h.m.publish(Event{Name: EventSpawnExit, ModelID: h.spec.ID, Fields: fields})
}

// Terminate stops the process behind h: SIGTERM first, Kill once the grace
// period elapses. Only this handle's PID is signalled. Safe to call more
// than once and after the process has exited on its own.
func (h *Handle) Terminate() error {
	h.stopOnce.Do(func() { h.stopErr = h.terminate() })
	return h.stopErr
}

func (h *Handle) terminate() error {
	h.stopping.Store(true)
	if h.Exited() {
		return nil
	}
	start := time.Now()
	forced := false
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// Platforms without SIGTERM delivery fall straight through to Kill.
		forced = true
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	t := time.NewTimer(h.m.cfg.StopGrace)
	defer t.Stop()
	select {
	case <-h.done:
	case <-t.C:
		forced = true
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		<-h.done
	}
	h.m.log.Info().Str("event", EventSpawnStop).Str("model", h.spec.ID).Int("pid", h.pid).Bool("forced", forced).Dur("took", time.Since(start)).Msg("llama-server stopped")
	h.m.publish(Event{Name: EventSpawnStop, ModelID: h.spec.ID, Fields: map[string]any{"pid": h.pid, "forced": forced}})
	return nil
}

// kill is used when a launch is abandoned before the handle is returned.
func (h *Handle) kill() {
	h.stopping.Store(true)
	h.stopOnce.Do(func() {})
	if !h.Exited() {
		_ = h.cmd.Process.Kill()
	}
	<-h.done
}
