package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/config"
)

func TestNewOpenAIStreamer_Validation(t *testing.T) {
	_, err := NewOpenAIStreamer(config.ModelConfig{}, zap.NewNop())
	require.Error(t, err)

	s, err := NewOpenAIStreamer(config.ModelConfig{Name: "gpt-4o-mini"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
}

func TestBuildRequest(t *testing.T) {
	s, err := NewOpenAIStreamer(config.ModelConfig{
		Name:        "gpt-4o-mini",
		MaxTokens:   512,
		Temperature: 0.3,
	}, zap.NewNop())
	require.NoError(t, err)

	req := s.buildRequest(Request{
		System: "You are a coding assistant.",
		Messages: []Message{
			{Role: RoleUser, Content: "read main.go"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: "call_1", Name: "read_file", Arguments: `{"path":"main.go"}`},
			}},
			{Role: RoleTool, ToolCallID: "call_1", Name: "read_file", Content: "package main"},
		},
		Tools: []ToolDefinition{
			{Name: "read_file", Description: "Read a file", Parameters: map[string]any{"type": "object"}},
		},
	})

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.True(t, req.Stream)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "call_1", req.Messages[2].ToolCalls[0].ID)
	assert.Equal(t, "call_1", req.Messages[3].ToolCallID)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "read_file", req.Tools[0].Function.Name)
}

func TestCollectCalls_OrderedByIndex(t *testing.T) {
	calls := map[int]*ToolCall{
		1: {ID: "call_b", Name: "list_files"},
		0: {ID: "call_a", Name: "read_file", Arguments: `{"path":"a"}`},
	}

	out := collectCalls(calls)
	require.Len(t, out, 2)
	assert.Equal(t, "call_a", out[0].ID)
	assert.Equal(t, "call_b", out[1].ID)

	assert.Nil(t, collectCalls(nil))
}

func TestCompletion_AssistantMessage(t *testing.T) {
	c := &Completion{Text: "done", ToolCalls: []ToolCall{{ID: "call_1", Name: "read_file"}}}
	msg := c.AssistantMessage()
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "done", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
}
