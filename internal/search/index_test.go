package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(Config{}, HashEmbedder{Dim: 64}, nil)
	require.NoError(t, err)
	return idx
}

func TestNewIndex_RequiresEmbedder(t *testing.T) {
	_, err := NewIndex(Config{}, nil, nil)
	require.Error(t, err)
}

func TestAdd_Validation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.Error(t, idx.Add(ctx, "", "content"))
	require.Error(t, idx.Add(ctx, "main.go", ""))
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "greet.py", "def greet(): print('hello world')"))
	require.NoError(t, idx.Add(ctx, "math.py", "def add(a, b): return a + b"))
	assert.Equal(t, 2, idx.Count())

	results, err := idx.Query(ctx, "def greet(): print('hello world')", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "greet.py", results[0].Path)
}

func TestQuery_CapsKAtDocCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "only.py", "print('only')"))

	results, err := idx.Query(ctx, "print", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQuery_Validation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Query(ctx, "", 5)
	require.Error(t, err)

	_, err = idx.Query(ctx, "x", 0)
	require.Error(t, err)
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := HashEmbedder{Dim: 32}
	ctx := context.Background()

	a, err := e.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)
	b, err := e.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.EmbedQuery(ctx, "something else entirely")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
