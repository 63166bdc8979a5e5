package memory

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

const instrumentationName = "github.com/fyrsmithlabs/agentd/internal/memory"

// Store provides append-only access to the session memory log.
type Store interface {
	// Append adds an entry at the end of the session log.
	Append(ctx context.Context, sessionID string, kind Kind, content string, attrs map[string]string) (*Entry, error)

	// Recent returns the most recent entries of the given kind,
	// oldest-first within the returned window. kind "" matches all kinds.
	// limit <= 0 means no limit.
	Recent(ctx context.Context, sessionID string, kind Kind, limit int) ([]*Entry, error)

	// Clear removes all entries for a session.
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryStore is a thread-safe in-memory Store. Sessions are independent;
// entries within a session are kept in insertion order and never mutated.
type InMemoryStore struct {
	mu        sync.RWMutex
	bySession map[string][]*Entry

	logger *zap.Logger
	tracer trace.Tracer

	appendCounter metric.Int64Counter
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore(logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &InMemoryStore{
		bySession: make(map[string][]*Entry),
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.appendCounter, err = meter.Int64Counter(
		"agentd.memory.appends_total",
		metric.WithDescription("Total number of memory entries appended"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		logger.Warn("failed to create append counter", zap.Error(err))
	}

	return s
}

// Append adds an entry at the end of the session log.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, kind Kind, content string, attrs map[string]string) (*Entry, error) {
	ctx, span := s.tracer.Start(ctx, "memory.append")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("kind", string(kind)),
	)

	entry := &Entry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if len(attrs) > 0 {
		entry.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			entry.Attributes[k] = v
		}
	}

	s.mu.Lock()
	s.bySession[sessionID] = append(s.bySession[sessionID], entry)
	s.mu.Unlock()

	if s.appendCounter != nil {
		s.appendCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	}

	cp := *entry
	return &cp, nil
}

// Recent returns the most recent entries of the given kind, oldest-first.
func (s *InMemoryStore) Recent(ctx context.Context, sessionID string, kind Kind, limit int) ([]*Entry, error) {
	_, span := s.tracer.Start(ctx, "memory.recent")
	defer span.End()

	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.bySession[sessionID]

	matched := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		matched = append(matched, e)
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	// Copies keep the stored entries immutable.
	result := make([]*Entry, len(matched))
	for i, e := range matched {
		cp := *e
		result[i] = &cp
	}

	span.SetAttributes(attribute.Int("count", len(result)))
	return result, nil
}

// Clear removes all entries for a session.
func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	_, span := s.tracer.Start(ctx, "memory.clear")
	defer span.End()

	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	delete(s.bySession, sessionID)
	s.mu.Unlock()

	s.logger.Debug("cleared session memory", zap.String("session_id", sessionID))
	return nil
}
