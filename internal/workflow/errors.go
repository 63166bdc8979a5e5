package workflow

import "errors"

var (
	ErrEmptySessionID    = errors.New("session id is required")
	ErrEmptyTitle        = errors.New("step title is required")
	ErrInvalidKind       = errors.New("invalid step kind")
	ErrRunNotFound       = errors.New("run not found")
	ErrStepNotFound      = errors.New("step not found")
	ErrParentNotFound    = errors.New("parent step not found")
	ErrInvalidTransition = errors.New("invalid step status transition")
)
