package tools

import "errors"

var (
	// ErrNotFound indicates the requested tool is not registered.
	ErrNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates arguments failed schema validation.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrExecutionFailed indicates the tool ran and failed.
	ErrExecutionFailed = errors.New("tool execution failed")
)
