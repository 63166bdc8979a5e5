package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/agentd/internal/search")

// Result is one ranked search hit.
type Result struct {
	Path    string  `json:"path"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// Config holds index settings.
type Config struct {
	// Path is the directory for on-disk persistence. Empty means in-memory.
	Path string

	// Collection is the chromem collection name.
	Collection string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "agentd_code"
	}
}

// Index is an embedding-backed code search index.
type Index struct {
	db       *chromem.DB
	embedder Embedder
	config   Config
	logger   *zap.Logger

	mu    sync.Mutex
	count int
}

// NewIndex creates a search index. With a persistence path the index
// survives restarts; without one it lives in memory.
func NewIndex(cfg Config, embedder Embedder, logger *zap.Logger) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	var db *chromem.DB
	var err error
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("creating persistent chromem DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	idx := &Index{
		db:       db,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}

	if col := db.GetCollection(cfg.Collection, idx.embeddingFunc()); col != nil {
		idx.count = col.Count()
	}

	return idx, nil
}

func (i *Index) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.EmbedQuery(ctx, text)
	}
}

func (i *Index) collection() (*chromem.Collection, error) {
	col, err := i.db.GetOrCreateCollection(i.config.Collection, nil, i.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", i.config.Collection, err)
	}
	return col, nil
}

// Add indexes one document under the given path, replacing any previous
// content for the same path.
func (i *Index) Add(ctx context.Context, path, content string) error {
	ctx, span := tracer.Start(ctx, "search.add")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	if path == "" {
		return errors.New("path is required")
	}
	if content == "" {
		return errors.New("content is required")
	}

	col, err := i.collection()
	if err != nil {
		span.RecordError(err)
		return err
	}

	doc := chromem.Document{
		ID:       path,
		Content:  content,
		Metadata: map[string]string{"path": path},
	}
	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding document %s: %w", path, err)
	}

	i.mu.Lock()
	i.count = col.Count()
	i.mu.Unlock()

	i.logger.Debug("indexed document", zap.String("path", path), zap.Int("bytes", len(content)))
	return nil
}

// Query returns up to k documents ranked by similarity to the query text.
func (i *Index) Query(ctx context.Context, query string, k int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "search.query", trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	col := i.db.GetCollection(i.config.Collection, i.embeddingFunc())
	if col == nil {
		return []Result{}, nil
	}

	// chromem requires nResults <= doc count.
	docCount := col.Count()
	if docCount == 0 {
		return []Result{}, nil
	}
	if k > docCount {
		k = docCount
	}

	hits, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, len(hits))
	for n, h := range hits {
		results[n] = Result{
			Path:    h.Metadata["path"],
			Content: h.Content,
			Score:   h.Similarity,
		}
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count
}
