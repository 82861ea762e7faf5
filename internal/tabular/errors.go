package tabular

import "errors"

// Domain errors for citation row operations.
var (
	ErrNotFound  = errors.New("citation not found")
	ErrDuplicate = errors.New("citation already exists")
)
