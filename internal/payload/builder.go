// Package payload shapes llama-server request bodies. Building a payload is a
// pure transformation: no network or filesystem access happens here and
// identical inputs always produce identical payloads.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ggufctl/internal/imaging"
)

// DefaultSystemPrompt is used when a chat request carries no system prompt.
const DefaultSystemPrompt = "You are an AI assistant. You only return the requested content without making comments."

// MediaMarker is where llama-server splices an image into a native prompt.
const MediaMarker = "<__media__>"

const schemaName = "chat_response"

// Image is an optional picture attached to a prompt: inline bytes or a
// remote http(s) URL.
type Image struct {
	Data []byte
	URL  string
}

func (i *Image) empty() bool { return i == nil || (len(i.Data) == 0 && i.URL == "") }

// Constraint restricts the shape of generated output. At most one of the
// fields may be set.
type Constraint struct {
	// Grammar is GBNF source, honoured by the native protocol.
	Grammar string
	// Schema is a JSON schema object.
	Schema json.RawMessage
}

// IsZero reports whether no constraint is set.
func (c Constraint) IsZero() bool { return c.Grammar == "" && len(c.Schema) == 0 }

// Request is everything needed to shape one call.
type Request struct {
	Protocol Protocol
	// Model names the loaded model in chat bodies. llama-server serves a
	// single model and ignores the value, so it may be empty when attaching
	// to a server this process did not launch.
	Model        string
	Prompt       string
	Image        *Image
	SystemPrompt []string
	Constraint   Constraint
}

// MultimodalPrompt is the structured native prompt used when an image is attached.
type MultimodalPrompt struct {
	PromptString   string   `json:"prompt_string"`
	MultimodalData []string `json:"multimodal_data"`
}

// CompletionRequest is the body of POST /completion. Prompt holds either a
// string or a MultimodalPrompt.
type CompletionRequest struct {
	Prompt     any             `json:"prompt"`
	Grammar    string          `json:"grammar,omitempty"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// Payload is a protocol-tagged request body. Exactly one of Chat and
// Completion is set, matching Protocol.
type Payload struct {
	Protocol   Protocol
	Chat       *openai.ChatCompletionRequest
	Completion *CompletionRequest
}

// MarshalJSON encodes the body for the wire.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Protocol {
	case OpenAIStyle:
		return json.Marshal(p.Chat)
	case NativeStyle:
		return json.Marshal(p.Completion)
	default:
		return nil, ErrUnknownProtocol(p.Protocol.String())
	}
}

// Builder turns Requests into Payloads. The zero value is ready to use.
type Builder struct {
	// SystemPrompt replaces DefaultSystemPrompt when set.
	SystemPrompt string
	// ImageMaxSide downscales native images whose longest side exceeds it (0 = never).
	ImageMaxSide int
}

// Build shapes req with a zero Builder.
func Build(req Request) (Payload, error) { return Builder{}.Build(req) }

// Build shapes req for its protocol.
func (b Builder) Build(req Request) (Payload, error) {
	if req.Constraint.Grammar != "" && len(req.Constraint.Schema) > 0 {
		return Payload{}, fmt.Errorf("%w: grammar and schema are mutually exclusive", ErrConstraintMismatch)
	}
	var schema json.RawMessage
	if len(req.Constraint.Schema) > 0 {
		s, err := normalizeSchema(req.Constraint.Schema)
		if err != nil {
			return Payload{}, err
		}
		schema = s
	}
	switch req.Protocol {
	case OpenAIStyle:
		return b.buildChat(req, schema)
	case NativeStyle:
		return b.buildCompletion(req, schema)
	default:
		return Payload{}, ErrUnknownProtocol(req.Protocol.String())
	}
}

func (b Builder) buildChat(req Request, schema json.RawMessage) (Payload, error) {
	if req.Constraint.Grammar != "" {
		return Payload{}, fmt.Errorf("%w: grammar requires the native protocol", ErrConstraintMismatch)
	}
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	if !req.Image.empty() {
		u := req.Image.URL
		if len(req.Image.Data) > 0 {
			du, err := imaging.DataURL(req.Image.Data)
			if err != nil {
				return Payload{}, fmt.Errorf("image: %w", err)
			}
			u = du
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: u},
		})
	}
	chat := &openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.systemPrompt(req.SystemPrompt)},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	if schema != nil {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		}
	}
	return Payload{Protocol: OpenAIStyle, Chat: chat}, nil
}

func (b Builder) buildCompletion(req Request, schema json.RawMessage) (Payload, error) {
	c := &CompletionRequest{Prompt: req.Prompt, Grammar: req.Constraint.Grammar, JSONSchema: schema}
	if !req.Image.empty() {
		if len(req.Image.Data) == 0 {
			return Payload{}, ErrRemoteImage
		}
		data, err := imaging.Downscale(req.Image.Data, b.ImageMaxSide)
		if err != nil {
			return Payload{}, fmt.Errorf("image: %w", err)
		}
		prompt := req.Prompt
		if !strings.Contains(prompt, MediaMarker) {
			prompt = MediaMarker + prompt
		}
		c.Prompt = MultimodalPrompt{
			PromptString:   prompt,
			MultimodalData: []string{imaging.Base64(data)},
		}
	}
	return Payload{Protocol: NativeStyle, Completion: c}, nil
}

// systemPrompt joins the caller's lines, falling back to the default text.
func (b Builder) systemPrompt(lines []string) string {
	if s := strings.Join(lines, "\n"); strings.TrimSpace(s) != "" {
		return s
	}
	if b.SystemPrompt != "" {
		return b.SystemPrompt
	}
	return DefaultSystemPrompt
}

// normalizeSchema validates that s is a JSON object and returns a private copy.
func normalizeSchema(s json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(s)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("json schema must be a JSON object")
	}
	return append(json.RawMessage(nil), trimmed...), nil
}
