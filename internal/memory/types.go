package memory

import (
	"time"
)

// Kind classifies a memory entry.
type Kind string

const (
	// KindConversation records a user or assistant conversation turn.
	KindConversation Kind = "conversation"
	// KindToolOperation records the outcome of a tool invocation.
	KindToolOperation Kind = "tool_operation"
)

// Valid reports whether the kind is a known entry kind.
func (k Kind) Valid() bool {
	return k == KindConversation || k == KindToolOperation
}

// Entry is an immutable record scoped to a session.
type Entry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// SessionID is the session this entry belongs to.
	SessionID string `json:"session_id"`

	// Kind classifies the entry.
	Kind Kind `json:"kind"`

	// Content is the recorded text.
	Content string `json:"content"`

	// Attributes carries structured metadata (role, tool name, ...).
	Attributes map[string]string `json:"attributes,omitempty"`

	// CreatedAt is when this entry was appended.
	CreatedAt time.Time `json:"created_at"`
}

// Well-known attribute keys.
const (
	// AttrRole marks conversation entries as "user" or "assistant".
	AttrRole = "role"
	// AttrTool names the tool on tool_operation entries.
	AttrTool = "tool"
	// AttrCheckpointID links a tool_operation entry to a checkpoint.
	AttrCheckpointID = "checkpoint_id"
)
