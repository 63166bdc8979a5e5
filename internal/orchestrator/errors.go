package orchestrator

import "errors"

var (
	// ErrTurnInProgress indicates the session already has an active turn.
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")

	// ErrEmptySessionID indicates a missing session identifier.
	ErrEmptySessionID = errors.New("session ID cannot be empty")

	// ErrEmptyMessage indicates a missing user message.
	ErrEmptyMessage = errors.New("message cannot be empty")
)
