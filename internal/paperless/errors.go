package paperless

import "errors"

// Domain errors for backend operations.
var (
	ErrNotFound     = errors.New("document not found in backend")
	ErrUnauthorized = errors.New("backend rejected credentials")
)
