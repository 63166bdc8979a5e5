package memory

import "errors"

var (
	ErrEmptySessionID = errors.New("session id is required")
	ErrInvalidKind    = errors.New("invalid memory entry kind")
	ErrEmptyContent   = errors.New("entry content is required")
)
