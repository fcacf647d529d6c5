package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ggufctl/internal/assets"
	"ggufctl/internal/client"
	"ggufctl/internal/imaging"
	"ggufctl/internal/payload"
	"ggufctl/internal/registry"
	"ggufctl/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case client.IsServiceError(err):
		incrementUpstreamError("service")
		return http.StatusBadGateway
	case client.IsMalformedResponse(err):
		incrementUpstreamError("malformed")
		return http.StatusBadGateway
	case assets.IsAssetNotFound(err),
		registry.IsUnknownModelKind(err),
		registry.IsMissingArtifact(err):
		return http.StatusNotFound
	case errors.Is(err, payload.ErrConstraintMismatch),
		errors.Is(err, payload.ErrRemoteImage),
		errors.Is(err, imaging.ErrNotImage),
		payload.IsUnknownProtocol(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
