package checkpoint

import (
	"time"
)

// Status represents the lifecycle state of a checkpoint.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// ValidTransitions defines allowed state transitions.
var ValidTransitions = map[Status][]Status{
	StatusPending:  {StatusApplied, StatusRejected},
	StatusApplied:  {}, // terminal
	StatusRejected: {}, // terminal
}

// CanTransitionTo checks if a transition from current status to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusApplied || s == StatusRejected
}

// Checkpoint is a proposed full-content file mutation.
type Checkpoint struct {
	// ID is the unique identifier for this checkpoint.
	ID string `json:"id"`

	// SessionID is the session this checkpoint belongs to.
	SessionID string `json:"session_id"`

	// FilePath is the workspace-relative path to mutate.
	FilePath string `json:"file_path"`

	// OriginalContent is the file content at proposal time ("" if absent).
	OriginalContent string `json:"original_content"`

	// ProposedContent is the full replacement content.
	ProposedContent string `json:"proposed_content"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// CreatedAt is when the proposal was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
