package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agentd/internal/search"
)

const defaultSearchLimit = 5

// SearchTool performs semantic search over the workspace code index.
type SearchTool struct {
	index *search.Index
}

// SearchArgs are the arguments for search_code.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// NewSearchTool creates a search_code tool backed by the given index.
func NewSearchTool(index *search.Index) (*SearchTool, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	return &SearchTool{index: index}, nil
}

func (*SearchTool) Name() string { return "search_code" }
func (*SearchTool) Description() string {
	return "Search the workspace for code relevant to a natural-language query."
}
func (*SearchTool) Mutates() bool { return false }

func (*SearchTool) Schema() ParameterSchema {
	return ParameterSchema{
		Type: "object",
		Properties: map[string]Property{
			"query": {Type: "string", Description: "Natural-language description of the code to find"},
			"limit": {Type: "integer", Description: "Maximum number of results (default 5)"},
		},
		Required: []string{"query"},
	}
}

func (t *SearchTool) Execute(ctx context.Context, _ ExecContext, raw json.RawMessage) (string, error) {
	var args SearchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Query == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidArguments)
	}
	if args.Limit <= 0 {
		args.Limit = defaultSearchLimit
	}

	results, err := t.index.Query(ctx, args.Query, args.Limit)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	if len(results) == 0 {
		return "No matching code found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "// %s (score %.3f)\n%s", r.Path, r.Score, r.Content)
	}
	return b.String(), nil
}
