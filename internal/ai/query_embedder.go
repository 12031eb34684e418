package ai

import (
	"context"
	"fmt"
	"strings"
)

const TaskRetrievalQuery = "RETRIEVAL_QUERY"

// QueryEmbedder embeds chat questions for vector search over document chunks.
type QueryEmbedder struct {
	embedder IEmbedder
	maxChars int
	dims     int
}

// NewQueryEmbedder caps the input at maxChars characters and rejects vectors
// whose length differs from dims. Zero disables either check.
func NewQueryEmbedder(e IEmbedder, maxChars, dims int) *QueryEmbedder {
	return &QueryEmbedder{embedder: e, maxChars: maxChars, dims: dims}
}

func (q *QueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty query")
	}
	if q.maxChars > 0 {
		if r := []rune(text); len(r) > q.maxChars {
			text = string(r[:q.maxChars])
		}
	}
	vec, err := q.embedder.Embed(ctx, text, TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query with %s: %w", q.embedder.ModelName(), err)
	}
	if q.dims > 0 && len(vec) != 0 && len(vec) != q.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), q.dims)
	}
	return vec, nil
}
