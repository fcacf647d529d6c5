package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// readinessCheck polls GET <url>/ until llama-server stops answering 503.
type readinessCheck struct {
	client       *http.Client
	url          string
	interval     time.Duration
	timeout      time.Duration
	checkTimeout time.Duration
	// exited, when non-nil, is closed if the process dies while polling.
	exited <-chan struct{}
	// onStatus is told about every not-ready status code.
	onStatus func(code int)
}

// wait returns the number of checks performed. ErrServerExited is returned
// unwrapped so the caller can attach diagnostics.
func (p readinessCheck) wait(ctx context.Context) (int, error) {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		code, err := p.check(ctx)
		switch {
		case err == nil && code != http.StatusServiceUnavailable:
			return attempts, nil
		case err == nil:
			if p.onStatus != nil {
				p.onStatus(code)
			}
		case ctx.Err() != nil:
			return attempts, ctx.Err()
		case !isStartingErr(err):
			return attempts, fmt.Errorf("readiness check %s: %w", p.url, err)
		}
		if time.Since(start) >= p.timeout {
			return attempts, ErrServerStartupTimeout(p.url, p.timeout)
		}
		t := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return attempts, ctx.Err()
		case <-p.exited:
			t.Stop()
			return attempts, ErrServerExited
		case <-t.C:
		}
	}
}

func (p readinessCheck) check(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.checkTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/", nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// isStartingErr reports transport errors expected while the server binds
// its socket and loads weights.
func isStartingErr(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
