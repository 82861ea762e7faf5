package workflow

import "errors"

// ErrNoBackends indicates a classification run was started with no
// configured backends.
var ErrNoBackends = errors.New("no backends configured")
