package payload

import "errors"

// ErrConstraintMismatch is returned when a constraint cannot be expressed in
// the chosen protocol (a grammar on the chat API, or both kinds at once).
var ErrConstraintMismatch = errors.New("constraint not supported by protocol")

// ErrRemoteImage is returned when the native protocol is given an image URL
// instead of image bytes.
var ErrRemoteImage = errors.New("native protocol requires inline image data")

// unknownProtocolError signals an unrecognised protocol name or tag.
type unknownProtocolError struct{ name string }

func (e unknownProtocolError) Error() string { return "unknown protocol: " + e.name }

// ErrUnknownProtocol returns an error for an unrecognised protocol name.
func ErrUnknownProtocol(name string) error { return unknownProtocolError{name: name} }

// IsUnknownProtocol reports whether err indicates an unrecognised protocol.
func IsUnknownProtocol(err error) bool {
	var e unknownProtocolError
	return errors.As(err, &e)
}
