package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_Validation(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Append(ctx, "", KindConversation, "hi", nil)
	assert.ErrorIs(t, err, ErrEmptySessionID)

	_, err = s.Append(ctx, "sess", Kind("bogus"), "hi", nil)
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = s.Append(ctx, "sess", KindConversation, "", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestAppend_SetsIDAndTimestamp(t *testing.T) {
	s := NewInMemoryStore(nil)

	entry, err := s.Append(context.Background(), "sess", KindConversation, "hello", map[string]string{AttrRole: "user"})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "sess", entry.SessionID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, "user", entry.Attributes[AttrRole])
}

func TestRecent_OldestFirstWindow(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, "sess", KindConversation, fmt.Sprintf("msg-%d", i), nil)
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, "sess", KindConversation, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// The 3 most recent, in insertion order, oldest-first.
	assert.Equal(t, "msg-2", entries[0].Content)
	assert.Equal(t, "msg-3", entries[1].Content)
	assert.Equal(t, "msg-4", entries[2].Content)
}

func TestRecent_KindFilter(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Append(ctx, "sess", KindConversation, "talk", nil)
	require.NoError(t, err)
	_, err = s.Append(ctx, "sess", KindToolOperation, "ran tool", nil)
	require.NoError(t, err)

	conv, err := s.Recent(ctx, "sess", KindConversation, 10)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, "talk", conv[0].Content)

	all, err := s.Recent(ctx, "sess", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecent_ReturnsCopies(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Append(ctx, "sess", KindConversation, "original", nil)
	require.NoError(t, err)

	entries, err := s.Recent(ctx, "sess", KindConversation, 1)
	require.NoError(t, err)
	entries[0].Content = "mutated"

	again, err := s.Recent(ctx, "sess", KindConversation, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestClear(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Append(ctx, "sess", KindConversation, "hi", nil)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "sess"))

	entries, err := s.Recent(ctx, "sess", "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSessionIsolation(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	_, err := s.Append(ctx, "a", KindConversation, "for a", nil)
	require.NoError(t, err)
	_, err = s.Append(ctx, "b", KindConversation, "for b", nil)
	require.NoError(t, err)

	entries, err := s.Recent(ctx, "a", "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "for a", entries[0].Content)
}

func TestConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := fmt.Sprintf("sess-%d", n%2)
			for j := 0; j < 50; j++ {
				_, err := s.Append(ctx, session, KindConversation, "x", nil)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	a, err := s.Recent(ctx, "sess-0", "", 0)
	require.NoError(t, err)
	b, err := s.Recent(ctx, "sess-1", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 400, len(a)+len(b))
}
