package assets

import "errors"

type notFoundError struct{ kind, name string }

func (e notFoundError) Error() string { return e.kind + " not found: " + e.name }

// ErrAssetNotFound returns an error for a grammar or schema name with no file behind it.
func ErrAssetNotFound(kind, name string) error { return notFoundError{kind: kind, name: name} }

// IsAssetNotFound reports whether err indicates a missing grammar or schema.
func IsAssetNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}
