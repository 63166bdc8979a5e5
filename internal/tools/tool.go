package tools

import (
	"context"
	"encoding/json"

	"github.com/fyrsmithlabs/agentd/internal/workspace"
)

// ParameterSchema declares a tool's argument shape in JSON Schema terms.
// It is serialized verbatim into model requests.
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one schema property.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the prompt-facing view of a tool.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      ParameterSchema `json:"schema"`
}

// ExecContext carries session-scoped capabilities into a tool execution.
type ExecContext struct {
	SessionID string
	Workspace *workspace.Workspace
}

// Tool is an executable capability with a declared parameter schema.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Schema returns the declared parameter schema.
	Schema() ParameterSchema

	// Mutates reports whether the tool's effect is a file mutation.
	// Mutating tools are never executed directly; the orchestrator
	// intercepts them and routes the proposal through a checkpoint.
	Mutates() bool

	// Execute runs the tool with raw JSON arguments. Implementations
	// validate arguments before acting; validation failures wrap
	// ErrInvalidArguments.
	Execute(ctx context.Context, ec ExecContext, args json.RawMessage) (string, error)
}
