package chatctx

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

// MemoryStore is a ChunkStore kept in process memory. Ranking is brute force.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    int64
	chunks map[string][]memChunk
}

type memChunk struct {
	Chunk
	seq       int64
	hasText   bool
	embedding []float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string][]memChunk)}
}

// Add stores a chunk. A nil content pointer models a chunk whose text was
// never extracted; a nil embedding models a chunk that was never embedded.
func (s *MemoryStore) Add(documentID string, ordinal int, content *string, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c := memChunk{
		Chunk: Chunk{
			ID:         fmt.Sprintf("%s-%d", documentID, s.seq),
			DocumentID: documentID,
			Ordinal:    ordinal,
		},
		seq:       s.seq,
		embedding: append([]float32(nil), embedding...),
	}
	if content != nil {
		c.Content = *content
		c.hasText = true
	}
	s.chunks[documentID] = append(s.chunks[documentID], c)
}

func (s *MemoryStore) sorted(documentID string) []memChunk {
	items := append([]memChunk(nil), s.chunks[documentID]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Ordinal != items[j].Ordinal {
			return items[i].Ordinal < items[j].Ordinal
		}
		return items[i].seq < items[j].seq
	})
	return items
}

func (s *MemoryStore) ListChunks(ctx context.Context, documentID string, limit int) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.sorted(documentID)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Chunk, 0, len(items))
	for _, item := range items {
		out = append(out, item.Chunk)
	}
	return out, nil
}

func (s *MemoryStore) SumContentLength(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, c := range s.chunks[documentID] {
		if c.hasText {
			total += CharCount(c.Content)
		}
	}
	return total, nil
}

func (s *MemoryStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[documentID]), nil
}

// TopKByCosineDistance skips chunks without an embedding and fails when a
// stored embedding has a different dimension than query.
func (s *MemoryStore) TopKByCosineDistance(ctx context.Context, documentID string, query []float32, k int) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		item     memChunk
		distance float64
	}
	items := s.sorted(documentID)
	ranked := make([]scored, 0, len(items))
	for _, item := range items {
		if item.embedding == nil {
			continue
		}
		if len(item.embedding) != len(query) {
			return nil, fmt.Errorf("chunk %s has %d dims, query has %d: %w",
				item.ID, len(item.embedding), len(query), appErr.ErrDataAccess)
		}
		ranked = append(ranked, scored{item: item, distance: CosineDistance(query, item.embedding)})
	}
	// items are already in ordinal order, a stable sort keeps that for equal distances
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Chunk, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.item.Chunk)
	}
	return out, nil
}

// CosineDistance is 1 - cosine similarity. A zero vector is at distance 1
// from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
