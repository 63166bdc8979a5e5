package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder embeds text via the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
func NewOpenAIEmbedder(apiKey, baseURL string, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}, nil
}

// EmbedQuery embeds a single text.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

// HashEmbedder is a deterministic, offline embedder for tests and for
// running without an API key. Vectors are stable per input and normalized.
type HashEmbedder struct {
	Dim int
}

// EmbedQuery returns a deterministic unit vector derived from token hashes.
func (e HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	dim := e.Dim
	if dim <= 0 {
		dim = 64
	}

	vec := make([]float32, dim)
	h := fnv.New32a()
	word := make([]byte, 0, 16)
	flush := func() {
		if len(word) == 0 {
			return
		}
		h.Reset()
		_, _ = h.Write(word)
		vec[h.Sum32()%uint32(dim)]++
		word = word[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			flush()
			continue
		}
		word = append(word, c)
	}
	flush()

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
