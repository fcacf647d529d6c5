package client

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"ggufctl/internal/payload"
)

// Content paths per protocol.
const (
	chatContentPath       = "choices.0.message.content"
	completionContentPath = "content"
)

// Extract pulls the generated text out of a response body. A present
// "error" field wins over any content and yields a *ServiceError.
func Extract(body []byte, p payload.Protocol) (string, error) {
	var path string
	switch p {
	case payload.OpenAIStyle:
		path = chatContentPath
	case payload.NativeStyle:
		path = completionContentPath
	default:
		return "", payload.ErrUnknownProtocol(p.String())
	}
	if !gjson.ValidBytes(body) {
		return "", ErrMalformedResponse("body is not valid JSON")
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() && e.Type != gjson.Null {
		return "", &ServiceError{Message: errorMessage(e)}
	}
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return "", ErrMalformedResponse(fmt.Sprintf("missing %q", path))
	}
	if res.Type != gjson.String {
		return "", ErrMalformedResponse(fmt.Sprintf("%q is %s, not a string", path, strings.ToLower(res.Type.String())))
	}
	return res.String(), nil
}

// errorMessage handles both {"error":{"message":...}} and {"error":"..."}.
func errorMessage(e gjson.Result) string {
	if e.IsObject() {
		if m := e.Get("message"); m.Exists() {
			return m.String()
		}
		return e.Raw
	}
	if e.Type == gjson.String {
		return e.String()
	}
	return e.Raw
}
