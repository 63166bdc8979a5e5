package checkpoint

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApplied))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.False(t, StatusApplied.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusApplied))
	assert.False(t, StatusApplied.CanTransitionTo(StatusPending))

	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusApplied.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestCreate_Validation(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Create(ctx, "", "main.go", "", "package main")
	assert.ErrorIs(t, err, ErrEmptySessionID)

	_, err = s.Create(ctx, "sess", "", "", "package main")
	assert.ErrorIs(t, err, ErrEmptyFilePath)
}

func TestCreate_StartsPending(t *testing.T) {
	s := NewInMemoryStore(nil)

	cp, err := s.Create(context.Background(), "sess", "hello.py", "", "print('Hello')")
	require.NoError(t, err)

	assert.NotEmpty(t, cp.ID)
	assert.Equal(t, StatusPending, cp.Status)
	assert.Equal(t, "hello.py", cp.FilePath)
	assert.Equal(t, "", cp.OriginalContent)
	assert.Equal(t, "print('Hello')", cp.ProposedContent)
	assert.False(t, cp.CreatedAt.IsZero())
}

func TestGet(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	cp, err := s.Create(ctx, "sess", "a.txt", "old", "new")
	require.NoError(t, err)

	got, err := s.Get(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, got.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_Approve(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	cp, err := s.Create(ctx, "sess", "a.txt", "old", "new")
	require.NoError(t, err)

	resolved, err := s.Resolve(ctx, cp.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, resolved.Status)
	assert.True(t, resolved.UpdatedAt.After(resolved.CreatedAt) || resolved.UpdatedAt.Equal(resolved.CreatedAt))
}

func TestResolve_Reject(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	cp, err := s.Create(ctx, "sess", "a.txt", "old", "new")
	require.NoError(t, err)

	resolved, err := s.Resolve(ctx, cp.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, resolved.Status)
}

func TestResolve_Idempotence(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	cp, err := s.Create(ctx, "sess", "a.txt", "old", "new")
	require.NoError(t, err)

	_, err = s.Resolve(ctx, cp.ID, true)
	require.NoError(t, err)

	// A second resolution is a conflict, never a silent overwrite.
	_, err = s.Resolve(ctx, cp.ID, true)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = s.Resolve(ctx, cp.ID, false)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	got, err := s.Get(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, got.Status)
}

func TestResolve_NotFound(t *testing.T) {
	s := NewInMemoryStore(nil)
	_, err := s.Resolve(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_ConcurrentSingleWinner(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	cp, err := s.Create(ctx, "sess", "a.txt", "old", "new")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			if _, err := s.Resolve(ctx, cp.ID, approve); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestListBySession(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	first, err := s.Create(ctx, "sess", "a.txt", "", "a")
	require.NoError(t, err)
	second, err := s.Create(ctx, "sess", "b.txt", "", "b")
	require.NoError(t, err)
	_, err = s.Create(ctx, "other", "c.txt", "", "c")
	require.NoError(t, err)

	list, err := s.ListBySession(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}
