// Package manager owns llama-server child processes. It is structured into
// small files by concern:
//
//   - manager.go: Manager type, handle table keyed by port, TerminateAll.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: Handle, LaunchOptions and the Resolver interface.
//   - command.go: llama-server command line and free-port helper.
//   - launch.go: Launch (resolve, spawn, wait ready, optional browser).
//   - ready.go: bounded readiness polling of GET /.
//   - progress.go: the carriage-return status line shown while waiting.
//   - stop.go: process reaping and handle-scoped termination.
//   - tail.go: bounded stderr capture for early-exit errors.
//   - errors.go: error types and helpers (IsServerStartupTimeout, IsPortInUse).
//   - events.go, eventpub_memory.go: lifecycle events and an in-memory sink.
//   - metrics.go: Prometheus collectors.
//
// Termination only ever signals a PID this package spawned.
package manager
