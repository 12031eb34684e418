package chatctx

import "context"

// Chunk is one positioned slice of a document's extracted text.
type Chunk struct {
	ID         string
	DocumentID string
	Ordinal    int
	Content    string
}

// ChunkStore reads the chunks written by the ingestion pipeline. Listing
// and ranking are ordered by ordinal, ties resolved by insertion order.
type ChunkStore interface {
	// ListChunks returns chunks by ascending ordinal; limit <= 0 means all.
	ListChunks(ctx context.Context, documentID string, limit int) ([]Chunk, error)
	// SumContentLength returns the total character count, null content as 0.
	SumContentLength(ctx context.Context, documentID string) (int, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
	// TopKByCosineDistance ranks chunks by ascending cosine distance to query.
	TopKByCosineDistance(ctx context.Context, documentID string, query []float32, k int) ([]Chunk, error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Answerer produces the model's reply for an assembled context.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question, contextText, model string) (string, error)
	GenerateAnswerMultiDoc(ctx context.Context, question, combinedContext, model string) (string, error)
}
