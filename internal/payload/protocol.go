package payload

import (
	"fmt"
	"strings"
)

// Protocol selects the llama-server API a request is shaped for.
type Protocol int

const (
	// OpenAIStyle targets POST /v1/chat/completions.
	OpenAIStyle Protocol = iota
	// NativeStyle targets POST /completion.
	NativeStyle
)

// Endpoint paths served by llama-server.
const (
	ChatEndpoint       = "/v1/chat/completions"
	CompletionEndpoint = "/completion"
)

func (p Protocol) String() string {
	switch p {
	case OpenAIStyle:
		return "openai"
	case NativeStyle:
		return "native"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Endpoint returns the request path for p.
func (p Protocol) Endpoint() string {
	if p == NativeStyle {
		return CompletionEndpoint
	}
	return ChatEndpoint
}

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool { return p == OpenAIStyle || p == NativeStyle }

// ParseProtocol accepts "openai"/"oai"/"chat" and "native"/"llama"/"completion".
// The empty string selects OpenAIStyle.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai", "oai", "chat":
		return OpenAIStyle, nil
	case "native", "llama", "completion":
		return NativeStyle, nil
	default:
		return 0, ErrUnknownProtocol(s)
	}
}
