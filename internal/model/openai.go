package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/config"
)

// OpenAIStreamer is a Streamer backed by an OpenAI-compatible chat
// completions endpoint.
type OpenAIStreamer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewOpenAIStreamer creates a streamer from model provider settings.
func NewOpenAIStreamer(cfg config.ModelConfig, logger *zap.Logger) (*OpenAIStreamer, error) {
	if cfg.Name == "" {
		return nil, errors.New("model name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey.Value())
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout.Duration() > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout.Duration()}
	}

	return &OpenAIStreamer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Name,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}, nil
}

func (s *OpenAIStreamer) StreamCompletion(ctx context.Context, req Request, onDelta func(string)) (*Completion, error) {
	stream, err := s.client.CreateChatCompletionStream(ctx, s.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	var text string
	calls := map[int]*ToolCall{}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("receive stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			text += delta.Content
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			call, ok := calls[idx]
			if !ok {
				call = &ToolCall{}
				calls[idx] = call
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Function.Name != "" {
				call.Name = tc.Function.Name
			}
			call.Arguments += tc.Function.Arguments
		}
	}

	completion := &Completion{Text: text, ToolCalls: collectCalls(calls)}
	if completion.Text == "" && len(completion.ToolCalls) == 0 {
		return nil, ErrEmptyCompletion
	}

	s.logger.Debug("completion finished",
		zap.Int("text_len", len(completion.Text)),
		zap.Int("tool_calls", len(completion.ToolCalls)))
	return completion, nil
}

func (s *OpenAIStreamer) buildRequest(req Request) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Tools:       tools,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Stream:      true,
	}
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}

func collectCalls(calls map[int]*ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]ToolCall, 0, len(calls))
	for _, idx := range indexes {
		out = append(out, *calls[idx])
	}
	return out
}
