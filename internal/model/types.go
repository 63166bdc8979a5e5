package model

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in the conversation sent to the model.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model request to invoke a named tool. Arguments carry
// the raw JSON exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a callable tool to the model. Parameters is
// a JSON Schema document.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Request is one completion request: a system prompt, the conversation
// so far, and the tools the model may call.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Completion is the model's full response to a Request. Text holds the
// assistant prose; ToolCalls holds any tool invocations, in the order
// the model emitted them.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// AssistantMessage converts a completion back into a conversation
// message for the next request.
func (c *Completion) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   c.Text,
		ToolCalls: c.ToolCalls,
	}
}
