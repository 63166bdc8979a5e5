package orchestrator

// EventType identifies a streamed turn event.
type EventType string

const (
	// EventMessage carries a chunk of assistant text.
	EventMessage EventType = "message"

	// EventToolCall announces a tool invocation before it runs.
	EventToolCall EventType = "tool_call"

	// EventToolResult carries the output of a completed tool call.
	EventToolResult EventType = "tool_result"

	// EventApprovalRequired announces a pending mutation checkpoint.
	// The turn ends immediately after.
	EventApprovalRequired EventType = "approval_required"

	// EventError reports a recoverable or fatal turn error.
	EventError EventType = "error"

	// EventDone is always the final event of a turn.
	EventDone EventType = "done"
)

// Event is one element of a turn's event stream.
type Event struct {
	Type    EventType      `json:"type"`
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// EmitFunc delivers one event to the caller. A non-nil error aborts
// the turn (typically a disconnected client).
type EmitFunc func(Event) error

func messageEvent(delta string) Event {
	return Event{Type: EventMessage, Content: delta}
}

func toolCallEvent(id, name, arguments string) Event {
	return Event{Type: EventToolCall, Data: map[string]any{
		"id":        id,
		"name":      name,
		"arguments": arguments,
	}}
}

func toolResultEvent(id, name, result string) Event {
	return Event{Type: EventToolResult, Content: result, Data: map[string]any{
		"id":   id,
		"name": name,
	}}
}

func approvalRequiredEvent(checkpointID, filePath, original, proposed string) Event {
	return Event{Type: EventApprovalRequired, Data: map[string]any{
		"checkpoint_id":    checkpointID,
		"file_path":        filePath,
		"original_content": original,
		"proposed_content": proposed,
	}}
}

func errorEvent(msg string) Event {
	return Event{Type: EventError, Content: msg}
}

func doneEvent() Event {
	return Event{Type: EventDone}
}
