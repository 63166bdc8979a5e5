package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/memory"
	"github.com/fyrsmithlabs/agentd/internal/model"
	"github.com/fyrsmithlabs/agentd/internal/tools"
	"github.com/fyrsmithlabs/agentd/internal/workflow"
	"github.com/fyrsmithlabs/agentd/internal/workspace"
)

const instrumentationName = "github.com/fyrsmithlabs/agentd/internal/orchestrator"

const defaultSystemPrompt = `You are a coding assistant operating on a project workspace.
Use the available tools to read, list, and search files before answering.
To change a file, call write_file with the full replacement content; the
change is applied only after a human approves it.`

// Config holds turn-loop settings.
type Config struct {
	// MaxIterations bounds the model/tool loop within one turn.
	MaxIterations int

	// HistoryLimit is how many conversation entries seed each turn.
	HistoryLimit int

	// TurnTimeout bounds one whole turn.
	TurnTimeout time.Duration

	// SystemPrompt overrides the built-in system prompt when set.
	SystemPrompt string
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		HistoryLimit:  20,
		TurnTimeout:   5 * time.Minute,
	}
}

// Service drives agent turns and checkpoint resolution.
type Service interface {
	// HandleTurn runs one user turn, delivering events through emit.
	// The final event is always "done" unless emit itself fails.
	// Returns ErrTurnInProgress if the session has an active turn.
	HandleTurn(ctx context.Context, sessionID, message string, emit EmitFunc) error

	// ResolveCheckpoint applies or rejects a pending checkpoint exactly
	// once, writing the proposed content to the workspace on approval.
	ResolveCheckpoint(ctx context.Context, checkpointID string, approve bool) (*checkpoint.Checkpoint, error)
}

type service struct {
	cfg        Config
	memory     memory.Store
	checkpoint checkpoint.Store
	workflow   workflow.Tracker
	registry   *tools.Registry
	streamer   model.Streamer
	workspace  *workspace.Workspace
	logger     *zap.Logger
	tracer     trace.Tracer

	mu          sync.Mutex
	activeTurns map[string]bool

	turnCounter metric.Int64Counter
	toolCounter metric.Int64Counter
}

// New creates the orchestrator service. All dependencies except the
// logger are required.
func New(
	cfg Config,
	mem memory.Store,
	cps checkpoint.Store,
	wf workflow.Tracker,
	registry *tools.Registry,
	streamer model.Streamer,
	ws *workspace.Workspace,
	logger *zap.Logger,
) (Service, error) {
	if mem == nil {
		return nil, errors.New("memory store is required")
	}
	if cps == nil {
		return nil, errors.New("checkpoint store is required")
	}
	if wf == nil {
		return nil, errors.New("workflow tracker is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if streamer == nil {
		return nil, errors.New("model streamer is required")
	}
	if ws == nil {
		return nil, errors.New("workspace is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = NewDefaultConfig().MaxIterations
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = NewDefaultConfig().HistoryLimit
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = NewDefaultConfig().TurnTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	s := &service{
		cfg:         cfg,
		memory:      mem,
		checkpoint:  cps,
		workflow:    wf,
		registry:    registry,
		streamer:    streamer,
		workspace:   ws,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		activeTurns: make(map[string]bool),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.turnCounter, err = meter.Int64Counter("orchestrator.turns",
		metric.WithDescription("Turns handled"))
	if err != nil {
		return nil, fmt.Errorf("create turn counter: %w", err)
	}
	s.toolCounter, err = meter.Int64Counter("orchestrator.tool_calls",
		metric.WithDescription("Tool calls dispatched"))
	if err != nil {
		return nil, fmt.Errorf("create tool counter: %w", err)
	}

	return s, nil
}

func (s *service) HandleTurn(ctx context.Context, sessionID, message string, emit EmitFunc) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if message == "" {
		return ErrEmptyMessage
	}
	if emit == nil {
		return errors.New("emit function is required")
	}

	if !s.acquireTurn(sessionID) {
		return ErrTurnInProgress
	}
	defer s.releaseTurn(sessionID)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "orchestrator.handle_turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()
	s.turnCounter.Add(ctx, 1)

	if _, err := s.memory.Append(ctx, sessionID, memory.KindConversation, message,
		map[string]string{memory.AttrRole: "user"}); err != nil {
		return fmt.Errorf("record user message: %w", err)
	}

	rootStep, err := s.workflow.StartRun(ctx, sessionID, truncate(message, 80))
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	messages, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	return s.runLoop(ctx, sessionID, rootStep.ID, messages, emit)
}

// runLoop alternates model completions and tool dispatch until the
// model answers without tool calls, a mutation needs approval, or the
// iteration cap is hit.
func (s *service) runLoop(ctx context.Context, sessionID, rootStepID string, messages []model.Message, emit EmitFunc) error {
	req := model.Request{
		System:   s.cfg.SystemPrompt,
		Messages: messages,
		Tools:    s.toolDefinitions(),
	}

	for iter := 0; iter < s.cfg.MaxIterations; iter++ {
		completion, err := s.streamCompletion(ctx, req, emit)
		if err != nil {
			return s.failTurn(ctx, sessionID, rootStepID, emit, err)
		}

		req.Messages = append(req.Messages, completion.AssistantMessage())

		if len(completion.ToolCalls) == 0 {
			// Only the closing reply becomes a conversation entry;
			// interim text stays in the turn's prompt state.
			if completion.Text != "" {
				if _, err := s.memory.Append(ctx, sessionID, memory.KindConversation, completion.Text,
					map[string]string{memory.AttrRole: "assistant"}); err != nil {
					s.logger.Error("record assistant message", zap.Error(err))
				}
			}
			if err := s.workflow.CompleteStep(ctx, sessionID, rootStepID, nil); err != nil {
				s.logger.Error("complete root step", zap.Error(err))
			}
			return emit(doneEvent())
		}

		for _, call := range completion.ToolCalls {
			s.toolCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool.name", call.Name)))

			// Mutation calls never announce as tool_call: valid ones
			// become an approval checkpoint, malformed ones recover
			// like any other tool failure.
			mutation, merr := s.isMutation(call.Name)
			if merr == nil && mutation {
				args, perr := tools.ParseWriteFileArgs(json.RawMessage(call.Arguments))
				if perr != nil {
					resultMsg, err := s.failToolCall(ctx, sessionID, rootStepID, call, perr, emit)
					if err != nil {
						return err
					}
					req.Messages = append(req.Messages, resultMsg)
					continue
				}
				return s.proposeMutation(ctx, sessionID, rootStepID, call, args, emit)
			}

			if err := emit(toolCallEvent(call.ID, call.Name, call.Arguments)); err != nil {
				return err
			}
			resultMsg, err := s.dispatchTool(ctx, sessionID, rootStepID, call, emit)
			if err != nil {
				return err
			}
			req.Messages = append(req.Messages, resultMsg)
		}
	}

	return s.failTurn(ctx, sessionID, rootStepID, emit,
		fmt.Errorf("turn exceeded %d iterations without completing", s.cfg.MaxIterations))
}

// streamCompletion runs one model request, forwarding text deltas as
// message events. An emit failure cancels the stream.
func (s *service) streamCompletion(ctx context.Context, req model.Request, emit EmitFunc) (*model.Completion, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var emitErr error
	completion, err := s.streamer.StreamCompletion(streamCtx, req, func(delta string) {
		if emitErr != nil {
			return
		}
		if e := emit(messageEvent(delta)); e != nil {
			emitErr = e
			cancel()
		}
	})
	if emitErr != nil {
		return nil, emitErr
	}
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}
	return completion, nil
}

// proposeMutation turns a write_file call into a pending checkpoint
// and ends the turn awaiting approval.
func (s *service) proposeMutation(ctx context.Context, sessionID, rootStepID string, call model.ToolCall, args *tools.WriteFileArgs, emit EmitFunc) error {
	original, err := s.workspace.Read(args.Path)
	if err != nil {
		return s.failTurn(ctx, sessionID, rootStepID, emit, fmt.Errorf("read current content of %s: %w", args.Path, err))
	}

	cp, err := s.checkpoint.Create(ctx, sessionID, args.Path, original, args.Content)
	if err != nil {
		return s.failTurn(ctx, sessionID, rootStepID, emit, fmt.Errorf("create checkpoint: %w", err))
	}

	if _, err := s.workflow.StartStep(ctx, sessionID, rootStepID, "write "+args.Path,
		workflow.KindCheckpoint, map[string]string{
			workflow.AttrTool:         call.Name,
			workflow.AttrCheckpointID: cp.ID,
		}); err != nil {
		s.logger.Error("start checkpoint step", zap.Error(err))
	}

	if _, err := s.memory.Append(ctx, sessionID, memory.KindToolOperation,
		fmt.Sprintf("proposed write to %s", args.Path),
		map[string]string{
			memory.AttrTool:         call.Name,
			memory.AttrCheckpointID: cp.ID,
		}); err != nil {
		s.logger.Error("record mutation proposal", zap.Error(err))
	}

	s.logger.Info("checkpoint proposed",
		zap.String("session_id", sessionID),
		zap.String("checkpoint_id", cp.ID),
		zap.String("file_path", args.Path))

	if err := emit(approvalRequiredEvent(cp.ID, args.Path, original, args.Content)); err != nil {
		return err
	}
	return emit(doneEvent())
}

// failToolCall records one recoverable tool-call failure: a failed
// tool step, an error event, and a tool-error message so the model can
// retry with corrected arguments.
func (s *service) failToolCall(ctx context.Context, sessionID, rootStepID string, call model.ToolCall, cause error, emit EmitFunc) (model.Message, error) {
	step, err := s.workflow.StartStep(ctx, sessionID, rootStepID, call.Name,
		workflow.KindTool, map[string]string{workflow.AttrTool: call.Name})
	if err != nil {
		s.logger.Error("start tool step", zap.Error(err))
	}
	if step != nil {
		if err := s.workflow.FailStep(ctx, sessionID, step.ID, cause.Error()); err != nil {
			s.logger.Error("fail tool step", zap.Error(err))
		}
	}
	s.recordToolOperation(ctx, sessionID, call.Name, fmt.Sprintf("%s failed: %v", call.Name, cause))
	if err := emit(errorEvent(cause.Error())); err != nil {
		return model.Message{}, err
	}
	return toolMessage(call, "error: "+cause.Error()), nil
}

// dispatchTool executes one non-mutating tool call and returns the
// tool-result message for the next model request. Tool failures are
// recoverable: they become error events and error results, and the
// loop continues.
func (s *service) dispatchTool(ctx context.Context, sessionID, rootStepID string, call model.ToolCall, emit EmitFunc) (model.Message, error) {
	step, err := s.workflow.StartStep(ctx, sessionID, rootStepID, call.Name,
		workflow.KindTool, map[string]string{workflow.AttrTool: call.Name})
	if err != nil {
		s.logger.Error("start tool step", zap.Error(err))
	}

	result, execErr := s.executeTool(ctx, sessionID, call)
	if execErr != nil {
		if step != nil {
			if err := s.workflow.FailStep(ctx, sessionID, step.ID, execErr.Error()); err != nil {
				s.logger.Error("fail tool step", zap.Error(err))
			}
		}
		s.recordToolOperation(ctx, sessionID, call.Name, fmt.Sprintf("%s failed: %v", call.Name, execErr))
		if err := emit(errorEvent(execErr.Error())); err != nil {
			return model.Message{}, err
		}
		return toolMessage(call, "error: "+execErr.Error()), nil
	}

	if step != nil {
		if err := s.workflow.CompleteStep(ctx, sessionID, step.ID,
			map[string]string{workflow.AttrResult: truncate(result, 120)}); err != nil {
			s.logger.Error("complete tool step", zap.Error(err))
		}
	}
	s.recordToolOperation(ctx, sessionID, call.Name, fmt.Sprintf("%s succeeded: %s", call.Name, truncate(result, 200)))
	if err := emit(toolResultEvent(call.ID, call.Name, result)); err != nil {
		return model.Message{}, err
	}
	return toolMessage(call, result), nil
}

func (s *service) executeTool(ctx context.Context, sessionID string, call model.ToolCall) (string, error) {
	tool, err := s.registry.Get(call.Name)
	if err != nil {
		return "", fmt.Errorf("unknown tool %q: %w", call.Name, err)
	}
	ec := tools.ExecContext{SessionID: sessionID, Workspace: s.workspace}
	return tool.Execute(ctx, ec, json.RawMessage(call.Arguments))
}

// failTurn reports a fatal turn error: error event, failed root step,
// then done. Emit failures take precedence since the client is gone.
func (s *service) failTurn(ctx context.Context, sessionID, rootStepID string, emit EmitFunc, cause error) error {
	reason := cause.Error()
	if ctx.Err() != nil {
		reason = "turn cancelled: " + ctx.Err().Error()
	}

	s.logger.Warn("turn failed",
		zap.String("session_id", sessionID),
		zap.String("reason", reason))

	// The context may already be done; use a fresh one for bookkeeping.
	if err := s.workflow.FailStep(context.WithoutCancel(ctx), sessionID, rootStepID, reason); err != nil {
		s.logger.Error("fail root step", zap.Error(err))
	}

	if err := emit(errorEvent(reason)); err != nil {
		return err
	}
	if err := emit(doneEvent()); err != nil {
		return err
	}
	return cause
}

func (s *service) loadHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	entries, err := s.memory.Recent(ctx, sessionID, memory.KindConversation, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(entries))
	for _, e := range entries {
		role := model.RoleUser
		if e.Attributes[memory.AttrRole] == "assistant" {
			role = model.RoleAssistant
		}
		messages = append(messages, model.Message{Role: role, Content: e.Content})
	}
	return messages, nil
}

func (s *service) toolDefinitions() []model.ToolDefinition {
	descs := s.registry.Descriptors()
	defs := make([]model.ToolDefinition, 0, len(descs))
	for _, d := range descs {
		defs = append(defs, model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Schema,
		})
	}
	return defs
}

func (s *service) isMutation(name string) (bool, error) {
	tool, err := s.registry.Get(name)
	if err != nil {
		return false, err
	}
	return tool.Mutates(), nil
}

func (s *service) recordToolOperation(ctx context.Context, sessionID, toolName, content string) {
	if _, err := s.memory.Append(ctx, sessionID, memory.KindToolOperation, content,
		map[string]string{memory.AttrTool: toolName}); err != nil {
		s.logger.Error("record tool operation", zap.Error(err))
	}
}

func (s *service) acquireTurn(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTurns[sessionID] {
		return false
	}
	s.activeTurns[sessionID] = true
	return true
}

func (s *service) releaseTurn(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeTurns, sessionID)
}

func toolMessage(call model.ToolCall, content string) model.Message {
	return model.Message{
		Role:       model.RoleTool,
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    content,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
