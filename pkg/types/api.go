package types

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	// Required prompt text.
	// example: Describe the picture in one sentence.
	Prompt string `json:"prompt" example:"Describe the picture in one sentence."`
	// Optional system prompt lines, joined with newlines.
	System []string `json:"system,omitempty"`
	// Optional image reference: http(s) URL or a path readable by the server.
	// example: https://example.com/cat.png
	Image string `json:"image,omitempty" example:"https://example.com/cat.png"`
	// Protocol to use: "openai" (default) or "native".
	// example: openai
	Protocol string `json:"protocol,omitempty" example:"openai"`
	// Name of a grammar file (without .gbnf) to constrain native completions.
	// example: list
	Grammar string `json:"grammar,omitempty" example:"list"`
	// Name of a JSON schema file (without .json) for structured output.
	// example: caption
	Schema string `json:"schema,omitempty" example:"caption"`
}

// PromptResponse is returned by POST /prompt.
type PromptResponse struct {
	// Text content extracted from the llama-server response.
	// example: A cat sleeping on a windowsill.
	Content string `json:"content" example:"A cat sleeping on a windowsill."`
	// Protocol that served the request.
	// example: openai
	Protocol string `json:"protocol" example:"openai"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: prompt is required
	Error string `json:"error" example:"prompt is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model served by the managed llama-server.
	Model ModelSpec `json:"model"`
	// Base URL of the managed llama-server.
	// example: http://127.0.0.1:8080
	URL string `json:"url" example:"http://127.0.0.1:8080"`
	// TCP port of the managed llama-server.
	// example: 8080
	Port int `json:"port" example:"8080"`
	// Process ID of the managed llama-server.
	// example: 12345
	PID int `json:"pid" example:"12345"`
	// Whether the readiness poll has completed.
	Ready bool `json:"ready"`
	// Uptime of the llama-server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// Event is one lifecycle event of the managed llama-server.
type Event struct {
	// example: spawn_ready
	Name string `json:"name" example:"spawn_ready"`
	// example: gemma
	Model  string         `json:"model" example:"gemma"`
	Fields map[string]any `json:"fields,omitempty"`
}

// EventsResponse is returned by GET /events, oldest first.
type EventsResponse struct {
	Events []Event `json:"events"`
}
