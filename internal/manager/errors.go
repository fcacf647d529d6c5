package manager

import (
	"errors"
	"fmt"
	"time"
)

// ErrServerExited is wrapped by Launch when the process dies before it
// reports ready.
var ErrServerExited = errors.New("llama-server exited before ready")

// ErrUnexpectedExit reports a ready process that exited without being stopped.
var ErrUnexpectedExit = errors.New("llama-server exited unexpectedly")

// startupTimeoutError signals that readiness polling ran out of time.
type startupTimeoutError struct {
	url   string
	after time.Duration
}

func (e startupTimeoutError) Error() string {
	return fmt.Sprintf("llama-server not ready after %s: %s", e.after, e.url)
}

// ErrServerStartupTimeout constructs a startupTimeoutError.
func ErrServerStartupTimeout(url string, after time.Duration) error {
	return startupTimeoutError{url: url, after: after}
}

// IsServerStartupTimeout reports whether err indicates an exhausted readiness poll.
func IsServerStartupTimeout(err error) bool {
	var e startupTimeoutError
	return errors.As(err, &e)
}

// portInUseError signals a launch on a port this manager already owns.
type portInUseError struct{ port int }

func (e portInUseError) Error() string {
	return fmt.Sprintf("port %d already has a managed llama-server", e.port)
}

// ErrPortInUse constructs a portInUseError.
func ErrPortInUse(port int) error { return portInUseError{port: port} }

// IsPortInUse reports whether err indicates a port conflict.
func IsPortInUse(err error) bool {
	var e portInUseError
	return errors.As(err, &e)
}
