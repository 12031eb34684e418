package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/yirikai/yirikai/internal/chatctx"
	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

const chunkTable = "document_embeddings"

// ChunkRepo serves document chunks and their embeddings from pgvector.
// Chunk order is (page_number, seq); seq records insertion order.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

var _ chatctx.ChunkStore = (*ChunkRepo)(nil)

// Create inserts a chunk. Production chunks come from the ingestion service.
func (r *ChunkRepo) Create(ctx context.Context, chunk *model.DocumentChunk) error {
	data := map[string]interface{}{
		"document_id": chunk.DocumentID,
		"page_number": chunk.PageNumber,
	}
	if chunk.ID != "" {
		data["id"] = chunk.ID
	}
	if chunk.Content != nil {
		data["content"] = *chunk.Content
	}
	if chunk.Embedding != nil {
		data["embedding"] = pgvector.NewVector(chunk.Embedding)
	}
	sqlStr, args, err := builder.BuildInsert(chunkTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChunkRepo) ListChunks(ctx context.Context, documentID string, limit int) ([]chatctx.Chunk, error) {
	where := map[string]interface{}{
		"document_id": documentID,
		"_orderby":    "page_number ASC, seq ASC",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect(chunkTable, where, []string{"id", "document_id", "page_number", "content"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	return scanChunks(rows)
}

func (r *ChunkRepo) SumContentLength(ctx context.Context, documentID string) (int, error) {
	const query = `SELECT COALESCE(SUM(LENGTH(content)), 0) FROM document_embeddings WHERE document_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, documentID).Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *ChunkRepo) CountChunks(ctx context.Context, documentID string) (int, error) {
	sqlStr, args, err := builder.BuildSelect(chunkTable, map[string]interface{}{"document_id": documentID}, []string{"COUNT(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TopKByCosineDistance uses the pgvector "<=>" operator. Chunks without an
// embedding are never ranked.
func (r *ChunkRepo) TopKByCosineDistance(ctx context.Context, documentID string, query []float32, k int) ([]chatctx.Chunk, error) {
	const stmt = `
		SELECT id, document_id, page_number, content
		FROM document_embeddings
		WHERE document_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, page_number ASC, seq ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, stmt, documentID, pgvector.NewVector(query), k)
	if err != nil {
		if dbutil.IsVectorDimensionMismatch(err) {
			return nil, fmt.Errorf("query vector has %d dims: %w: %w", len(query), appErr.ErrDataAccess, err)
		}
		return nil, err
	}
	chunks, err := scanChunks(rows)
	if err != nil && dbutil.IsVectorDimensionMismatch(err) {
		return nil, fmt.Errorf("query vector has %d dims: %w: %w", len(query), appErr.ErrDataAccess, err)
	}
	return chunks, err
}

func scanChunks(rows *sql.Rows) ([]chatctx.Chunk, error) {
	defer rows.Close()
	var out []chatctx.Chunk
	for rows.Next() {
		var (
			c       chatctx.Chunk
			content sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &content); err != nil {
			return nil, err
		}
		c.Content = content.String
		out = append(out, c)
	}
	return out, rows.Err()
}
