package checkpoint

import "errors"

var (
	ErrEmptySessionID  = errors.New("session id is required")
	ErrEmptyFilePath   = errors.New("file path is required")
	ErrNotFound        = errors.New("checkpoint not found")
	ErrAlreadyResolved = errors.New("checkpoint already resolved")
)
