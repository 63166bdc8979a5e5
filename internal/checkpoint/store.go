package checkpoint

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

const instrumentationName = "github.com/fyrsmithlabs/agentd/internal/checkpoint"

// Store provides checkpoint management operations.
type Store interface {
	// Create records a new pending checkpoint.
	Create(ctx context.Context, sessionID, filePath, original, proposed string) (*Checkpoint, error)

	// Get retrieves a checkpoint by ID.
	Get(ctx context.Context, id string) (*Checkpoint, error)

	// ListBySession returns all checkpoints for a session in creation order.
	ListBySession(ctx context.Context, sessionID string) ([]*Checkpoint, error)

	// Resolve transitions a pending checkpoint to applied or rejected.
	// Resolving an already-resolved checkpoint returns ErrAlreadyResolved
	// and leaves the checkpoint unchanged.
	Resolve(ctx context.Context, id string, approved bool) (*Checkpoint, error)
}

// InMemoryStore is a thread-safe in-memory Store.
type InMemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
	bySession   map[string][]string // sessionID -> []checkpointID

	logger *zap.Logger
	tracer trace.Tracer

	createCounter  metric.Int64Counter
	resolveCounter metric.Int64Counter
}

// NewInMemoryStore creates an empty in-memory checkpoint store.
func NewInMemoryStore(logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &InMemoryStore{
		checkpoints: make(map[string]*Checkpoint),
		bySession:   make(map[string][]string),
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.createCounter, err = meter.Int64Counter(
		"agentd.checkpoint.creates_total",
		metric.WithDescription("Total number of checkpoints created"),
		metric.WithUnit("{checkpoint}"),
	)
	if err != nil {
		logger.Warn("failed to create create counter", zap.Error(err))
	}
	s.resolveCounter, err = meter.Int64Counter(
		"agentd.checkpoint.resolutions_total",
		metric.WithDescription("Total number of checkpoint resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		logger.Warn("failed to create resolve counter", zap.Error(err))
	}

	return s
}

// Create records a new pending checkpoint.
func (s *InMemoryStore) Create(ctx context.Context, sessionID, filePath, original, proposed string) (*Checkpoint, error) {
	ctx, span := s.tracer.Start(ctx, "checkpoint.create")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if filePath == "" {
		return nil, ErrEmptyFilePath
	}

	now := time.Now()
	cp := &Checkpoint{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		FilePath:        filePath,
		OriginalContent: original,
		ProposedContent: proposed,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("file_path", filePath),
	)

	s.mu.Lock()
	stored := *cp
	s.checkpoints[cp.ID] = &stored
	s.bySession[sessionID] = append(s.bySession[sessionID], cp.ID)
	s.mu.Unlock()

	if s.createCounter != nil {
		s.createCounter.Add(ctx, 1)
	}

	s.logger.Info("checkpoint created",
		zap.String("checkpoint_id", cp.ID),
		zap.String("session_id", sessionID),
		zap.String("file_path", filePath),
	)

	return cp, nil
}

// Get retrieves a checkpoint by ID.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Checkpoint, error) {
	_, span := s.tracer.Start(ctx, "checkpoint.get")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := *cp
	return &result, nil
}

// ListBySession returns all checkpoints for a session in creation order.
func (s *InMemoryStore) ListBySession(ctx context.Context, sessionID string) ([]*Checkpoint, error) {
	_, span := s.tracer.Start(ctx, "checkpoint.list_by_session")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySession[sessionID]
	result := make([]*Checkpoint, 0, len(ids))
	for _, id := range ids {
		if cp, ok := s.checkpoints[id]; ok {
			c := *cp
			result = append(result, &c)
		}
	}

	return result, nil
}

// Resolve transitions a pending checkpoint to applied or rejected. The
// status check and the write happen under one lock, so a checkpoint can
// resolve at most once.
func (s *InMemoryStore) Resolve(ctx context.Context, id string, approved bool) (*Checkpoint, error) {
	ctx, span := s.tracer.Start(ctx, "checkpoint.resolve")
	defer span.End()

	target := StatusRejected
	if approved {
		target = StatusApplied
	}
	span.SetAttributes(attribute.String("target_status", string(target)))

	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !cp.Status.CanTransitionTo(target) {
		return nil, ErrAlreadyResolved
	}

	cp.Status = target
	cp.UpdatedAt = time.Now()

	if s.resolveCounter != nil {
		s.resolveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(target))))
	}

	s.logger.Info("checkpoint resolved",
		zap.String("checkpoint_id", id),
		zap.String("status", string(target)),
	)

	result := *cp
	return &result, nil
}
