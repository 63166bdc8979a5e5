package workflow

import (
	"time"
)

// StepKind classifies a workflow step.
type StepKind string

const (
	// KindTask is the root step of a turn.
	KindTask StepKind = "task"
	// KindTool records one tool invocation.
	KindTool StepKind = "tool"
	// KindCheckpoint records one file-mutation proposal.
	KindCheckpoint StepKind = "checkpoint"
)

// StepStatus represents the lifecycle state of a step.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusError      StepStatus = "error"
)

// ValidTransitions defines allowed step status transitions.
var ValidTransitions = map[StepStatus][]StepStatus{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusError},
	StatusInProgress: {StatusCompleted, StatusError},
	StatusCompleted:  {}, // terminal
	StatusError:      {}, // terminal
}

// CanTransitionTo checks if a transition from current status to target is valid.
func (s StepStatus) CanTransitionTo(target StepStatus) bool {
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
func (s StepStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Step is one node in the per-turn introspection tree.
type Step struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	ParentID    string            `json:"parent_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Kind        StepKind          `json:"kind"`
	Status      StepStatus        `json:"status"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Well-known step attribute keys.
const (
	// AttrCheckpointID anchors a checkpoint step to its checkpoint.
	AttrCheckpointID = "checkpoint_id"
	// AttrTool names the tool on tool steps.
	AttrTool = "tool"
	// AttrError carries the failure reason on error steps.
	AttrError = "error"
	// AttrResult carries a short result preview on completed tool steps.
	AttrResult = "result"
)

// Run is the per-session container of the most recent turn's steps.
type Run struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	RootStepID string    `json:"root_step_id"`
	Summary    string    `json:"summary"`
	Steps      []*Step   `json:"steps"`
	StartedAt  time.Time `json:"started_at"`
}
