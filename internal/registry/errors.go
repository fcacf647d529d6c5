package registry

import "errors"

// unknownModelError signals an identifier outside the supported set.
type unknownModelError struct{ name string }

func (e unknownModelError) Error() string { return "unknown model kind: " + e.name }

// ErrUnknownModelKind returns an error for an unsupported model identifier.
func ErrUnknownModelKind(name string) error { return unknownModelError{name: name} }

// IsUnknownModelKind reports whether err indicates an unsupported model identifier.
func IsUnknownModelKind(err error) bool {
	var e unknownModelError
	return errors.As(err, &e)
}

// missingArtifactError signals a resolved model file that is not on disk.
type missingArtifactError struct {
	name string
	path string
}

func (e missingArtifactError) Error() string {
	return "missing artifact for model " + e.name + ": " + e.path
}

// ErrMissingArtifact returns an error for a model file that does not exist.
func ErrMissingArtifact(name, path string) error {
	return missingArtifactError{name: name, path: path}
}

// IsMissingArtifact reports whether err indicates a missing model file.
func IsMissingArtifact(err error) bool {
	var e missingArtifactError
	return errors.As(err, &e)
}
