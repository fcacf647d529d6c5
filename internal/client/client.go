// Package client sends shaped payloads to a running llama-server and turns
// its responses into text or typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ggufctl/internal/payload"
)

// DefaultAPIKey is what llama-server accepts when started without --api-key.
const DefaultAPIKey = "no-key"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 16 << 20

// Client talks to one llama-server base URL.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	builder    payload.Builder
	log        zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithTimeout bounds each request through its context. Zero means no bound.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithBuilder sets the payload builder used by Send and Prompt.
func WithBuilder(b payload.Builder) Option { return func(c *Client) { c.builder = b } }

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client for baseURL, e.g. http://127.0.0.1:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  DefaultAPIKey,
		// Timeout=0: requests are bounded by their context.
		httpClient: &http.Client{Timeout: 0},
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is the raw outcome of one call.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
	Protocol   payload.Protocol
}

// Content extracts the generated text. An error status whose body carries
// no "error" field becomes a ServiceError with the status text.
func (r *Response) Content() (string, error) {
	s, err := Extract(r.Body, r.Protocol)
	if err == nil && r.StatusCode < 400 {
		return s, nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		se.StatusCode = r.StatusCode
		return "", se
	}
	if r.StatusCode >= 400 {
		msg := strings.TrimSpace(r.Status)
		if msg == "" {
			msg = http.StatusText(r.StatusCode)
		}
		return "", &ServiceError{Message: msg, StatusCode: r.StatusCode}
	}
	return "", err
}

// Send builds the payload for req and POSTs it to the protocol's endpoint.
// Non-2xx statuses are not errors here; see Response.Content.
func (c *Client) Send(ctx context.Context, req payload.Request) (*Response, error) {
	p, err := c.builder.Build(req)
	if err != nil {
		return nil, err
	}
	return c.SendPayload(ctx, p)
}

// SendPayload POSTs an already built payload.
func (c *Client) SendPayload(ctx context.Context, p payload.Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	url := c.baseURL + p.Protocol.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	start := time.Now()
	proto := p.Protocol.String()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(proto, "transport_error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		requestsTotal.WithLabelValues(proto, "read_error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}
	requestDuration.WithLabelValues(proto).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(proto, statusClass(resp.StatusCode)).Inc()
	c.log.Debug().Str("event", "request").Str("url", url).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Int("bytes", len(b)).Msg("llama-server call")
	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: b, Protocol: p.Protocol}, nil
}

// Prompt is Send followed by Content.
func (c *Client) Prompt(ctx context.Context, req payload.Request) (string, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content()
}

// ProtocolForEndpoint maps an endpoint path onto its protocol tag.
func ProtocolForEndpoint(path string) (payload.Protocol, error) {
	switch "/" + strings.Trim(path, "/") {
	case payload.ChatEndpoint:
		return payload.OpenAIStyle, nil
	case payload.CompletionEndpoint:
		return payload.NativeStyle, nil
	default:
		return 0, payload.ErrUnknownProtocol(path)
	}
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
