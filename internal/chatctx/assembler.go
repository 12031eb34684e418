package chatctx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/metrics"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

const (
	SingleDocTopK = 5
	MultiDocTopK  = 3

	chunkSeparator = "\n\n"
)

// Assembler turns a selected mode into the context text sent to the model.
type Assembler struct {
	store    ChunkStore
	embedder QueryEmbedder
	metrics  *metrics.Metrics
}

func NewAssembler(store ChunkStore, embedder QueryEmbedder, m *metrics.Metrics) *Assembler {
	return &Assembler{store: store, embedder: embedder, metrics: m}
}

// BuildContext returns the context for one document and the mode that was
// actually applied. A document without usable content resolves to ModeEmpty.
func (a *Assembler) BuildContext(ctx context.Context, documentID string, mode Mode, question string) (string, Mode, error) {
	var (
		chunks []Chunk
		err    error
	)
	switch mode {
	case ModeEmpty:
		return "", ModeEmpty, nil
	case ModeFull:
		chunks, err = a.fullChunks(ctx, documentID)
	case ModeRAG:
		chunks, err = a.ragChunks(ctx, documentID, a.embedQuery(ctx, question), SingleDocTopK)
	default:
		return "", ModeEmpty, fmt.Errorf("build context: unknown mode %d: %w", int(mode), appErr.ErrInvalid)
	}
	if err != nil {
		return "", ModeEmpty, err
	}
	text := joinChunks(chunks)
	if text == "" {
		return "", ModeEmpty, nil
	}
	return text, mode, nil
}

// BuildContextMulti builds one context per document. Documents without
// usable content are left out of the map; an empty map resolves to ModeEmpty.
// In RAG mode the question is embedded once and reused for every document.
func (a *Assembler) BuildContextMulti(ctx context.Context, documentIDs []string, mode Mode, question string) (map[string]string, Mode, error) {
	out := make(map[string]string, len(documentIDs))
	var queryVec []float32
	switch mode {
	case ModeEmpty:
		return out, ModeEmpty, nil
	case ModeFull:
	case ModeRAG:
		queryVec = a.embedQuery(ctx, question)
	default:
		return nil, ModeEmpty, fmt.Errorf("build context: unknown mode %d: %w", int(mode), appErr.ErrInvalid)
	}
	for _, id := range documentIDs {
		if _, done := out[id]; done {
			continue
		}
		var (
			chunks []Chunk
			err    error
		)
		if mode == ModeFull {
			chunks, err = a.fullChunks(ctx, id)
		} else {
			chunks, err = a.ragChunks(ctx, id, queryVec, MultiDocTopK)
		}
		if err != nil {
			return nil, ModeEmpty, err
		}
		if text := joinChunks(chunks); text != "" {
			out[id] = text
		}
	}
	if len(out) == 0 {
		return out, ModeEmpty, nil
	}
	return out, mode, nil
}

func (a *Assembler) fullChunks(ctx context.Context, documentID string) ([]Chunk, error) {
	chunks, err := a.store.ListChunks(ctx, documentID, 0)
	if err != nil {
		return nil, dataAccess(fmt.Sprintf("list chunks of %s", documentID), err)
	}
	return chunks, nil
}

func (a *Assembler) ragChunks(ctx context.Context, documentID string, queryVec []float32, n int) ([]Chunk, error) {
	if queryVec != nil {
		chunks, err := a.store.TopKByCosineDistance(ctx, documentID, queryVec, n)
		if err != nil {
			return nil, dataAccess(fmt.Sprintf("rank chunks of %s", documentID), err)
		}
		if joinChunks(chunks) != "" {
			return chunks, nil
		}
		logutil.GetLogger(ctx).Info("vector search returned no content, using leading chunks",
			zap.String("document_id", documentID))
		a.metrics.ObserveEmbeddingFallback("no_match")
	}
	chunks, err := a.store.ListChunks(ctx, documentID, n)
	if err != nil {
		return nil, dataAccess(fmt.Sprintf("list chunks of %s", documentID), err)
	}
	return chunks, nil
}

// embedQuery returns nil when no usable query vector could be produced. The
// caller then falls back to positional chunks.
func (a *Assembler) embedQuery(ctx context.Context, question string) []float32 {
	logger := logutil.GetLogger(ctx)
	if a.embedder == nil {
		a.metrics.ObserveEmbeddingFallback("disabled")
		return nil
	}
	vec, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		logger.Warn("query embedding failed, using leading chunks",
			zap.Error(fmt.Errorf("%w: %w", appErr.ErrEmbeddingService, err)))
		a.metrics.ObserveEmbeddingFallback("error")
		return nil
	}
	if isDegenerate(vec) {
		logger.Warn("query embedding is empty or all zero, using leading chunks",
			zap.Int("dims", len(vec)))
		a.metrics.ObserveEmbeddingFallback("degenerate")
		return nil
	}
	return vec
}

func isDegenerate(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func joinChunks(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Content == "" {
			continue
		}
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, chunkSeparator)
}
