package pipeline

import "errors"

var (
	ErrMissingInput     = errors.New("no image provided")
	ErrModelUnavailable = errors.New("model not available")
)
