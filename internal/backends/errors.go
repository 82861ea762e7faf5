package backends

import "errors"

// Domain errors for backend operations.
var (
	// ErrUnavailable marks connection, auth, and server failures. It is
	// retryable; parse problems are never surfaced as errors.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrUnknownKind marks an unrecognized backend kind in configuration.
	ErrUnknownKind = errors.New("unknown backend kind")
)
