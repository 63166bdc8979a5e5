package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/agentd/internal/workflow"

// Tracker records the per-turn step tree for each session.
type Tracker interface {
	// StartRun begins a new run for the session, replacing any previous
	// run, and returns the in-progress root task step.
	StartRun(ctx context.Context, sessionID, summary string) (*Step, error)

	// StartStep adds an in-progress child step to the current run.
	StartStep(ctx context.Context, sessionID, parentID, title string, kind StepKind, attrs map[string]string) (*Step, error)

	// CompleteStep marks a step completed, merging the given attributes.
	CompleteStep(ctx context.Context, sessionID, stepID string, attrs map[string]string) error

	// FailStep marks a step as errored with the given reason.
	FailStep(ctx context.Context, sessionID, stepID, reason string) error

	// GetRun returns the session's current run.
	GetRun(ctx context.Context, sessionID string) (*Run, error)

	// FindByCheckpoint returns the step anchored to the given checkpoint.
	FindByCheckpoint(ctx context.Context, sessionID, checkpointID string) (*Step, error)
}

// InMemoryTracker is a thread-safe in-memory Tracker. Only the most recent
// run per session is retained; starting a new run drops the previous one.
type InMemoryTracker struct {
	mu   sync.RWMutex
	runs map[string]*Run // sessionID -> current run

	logger *zap.Logger
	tracer trace.Tracer

	stepCounter metric.Int64Counter
}

// NewInMemoryTracker creates an empty tracker.
func NewInMemoryTracker(logger *zap.Logger) *InMemoryTracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &InMemoryTracker{
		runs:   make(map[string]*Run),
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	t.stepCounter, err = meter.Int64Counter(
		"agentd.workflow.steps_total",
		metric.WithDescription("Total number of workflow steps started"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		logger.Warn("failed to create step counter", zap.Error(err))
	}

	return t
}

// StartRun begins a new run for the session, replacing any previous run.
func (t *InMemoryTracker) StartRun(ctx context.Context, sessionID, summary string) (*Step, error) {
	ctx, span := t.tracer.Start(ctx, "workflow.start_run")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	now := time.Now()
	root := &Step{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Title:       "task",
		Description: summary,
		Kind:        KindTask,
		Status:      StatusInProgress,
		StartedAt:   now,
	}
	run := &Run{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		RootStepID: root.ID,
		Summary:    summary,
		Steps:      []*Step{root},
		StartedAt:  now,
	}

	span.SetAttributes(attribute.String("session_id", sessionID))

	t.mu.Lock()
	t.runs[sessionID] = run
	t.mu.Unlock()

	t.countStep(ctx, KindTask)

	rootCopy := *root
	return &rootCopy, nil
}

// StartStep adds an in-progress child step to the current run.
func (t *InMemoryTracker) StartStep(ctx context.Context, sessionID, parentID, title string, kind StepKind, attrs map[string]string) (*Step, error) {
	ctx, span := t.tracer.Start(ctx, "workflow.start_step")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if kind != KindTool && kind != KindCheckpoint {
		return nil, ErrInvalidKind
	}

	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("kind", string(kind)),
	)

	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[sessionID]
	if !ok {
		return nil, ErrRunNotFound
	}
	if parentID != "" && t.findStepLocked(run, parentID) == nil {
		return nil, ErrParentNotFound
	}

	step := &Step{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ParentID:  parentID,
		Title:     title,
		Kind:      kind,
		Status:    StatusInProgress,
		StartedAt: time.Now(),
	}
	if len(attrs) > 0 {
		step.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			step.Attributes[k] = v
		}
	}

	run.Steps = append(run.Steps, step)
	t.countStep(ctx, kind)

	stepCopy := cloneStep(step)
	return stepCopy, nil
}

// CompleteStep marks a step completed, merging the given attributes.
func (t *InMemoryTracker) CompleteStep(ctx context.Context, sessionID, stepID string, attrs map[string]string) error {
	_, span := t.tracer.Start(ctx, "workflow.complete_step")
	defer span.End()

	return t.finishStep(sessionID, stepID, StatusCompleted, attrs)
}

// FailStep marks a step as errored with the given reason.
func (t *InMemoryTracker) FailStep(ctx context.Context, sessionID, stepID, reason string) error {
	_, span := t.tracer.Start(ctx, "workflow.fail_step")
	defer span.End()

	return t.finishStep(sessionID, stepID, StatusError, map[string]string{AttrError: reason})
}

// finishStep moves a step to a terminal status.
func (t *InMemoryTracker) finishStep(sessionID, stepID string, target StepStatus, attrs map[string]string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[sessionID]
	if !ok {
		return ErrRunNotFound
	}
	step := t.findStepLocked(run, stepID)
	if step == nil {
		return ErrStepNotFound
	}
	if !step.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}

	step.Status = target
	now := time.Now()
	step.CompletedAt = &now
	if len(attrs) > 0 {
		if step.Attributes == nil {
			step.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			step.Attributes[k] = v
		}
	}

	return nil
}

// GetRun returns a copy of the session's current run.
func (t *InMemoryTracker) GetRun(ctx context.Context, sessionID string) (*Run, error) {
	_, span := t.tracer.Start(ctx, "workflow.get_run")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[sessionID]
	if !ok {
		return nil, ErrRunNotFound
	}

	result := &Run{
		ID:         run.ID,
		SessionID:  run.SessionID,
		RootStepID: run.RootStepID,
		Summary:    run.Summary,
		Steps:      make([]*Step, len(run.Steps)),
		StartedAt:  run.StartedAt,
	}
	for i, s := range run.Steps {
		result.Steps[i] = cloneStep(s)
	}
	return result, nil
}

// FindByCheckpoint returns the step whose checkpoint_id attribute matches.
func (t *InMemoryTracker) FindByCheckpoint(ctx context.Context, sessionID, checkpointID string) (*Step, error) {
	_, span := t.tracer.Start(ctx, "workflow.find_by_checkpoint")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[sessionID]
	if !ok {
		return nil, ErrRunNotFound
	}
	for _, s := range run.Steps {
		if s.Kind == KindCheckpoint && s.Attributes[AttrCheckpointID] == checkpointID {
			return cloneStep(s), nil
		}
	}
	return nil, ErrStepNotFound
}

// findStepLocked returns the live step with the given id, or nil.
// Caller must hold the lock.
func (t *InMemoryTracker) findStepLocked(run *Run, stepID string) *Step {
	for _, s := range run.Steps {
		if s.ID == stepID {
			return s
		}
	}
	return nil
}

func (t *InMemoryTracker) countStep(ctx context.Context, kind StepKind) {
	if t.stepCounter != nil {
		t.stepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	}
}

func cloneStep(s *Step) *Step {
	cp := *s
	if s.Attributes != nil {
		cp.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			cp.Attributes[k] = v
		}
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}
