package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/metrics"
)

type LRUOptions struct {
	Size    int
	TTL     time.Duration
	Metrics *metrics.Metrics
}

// WrapLruCacheToEmbedder keeps recent query vectors in memory. Empty vectors
// and errors are not cached.
func WrapLruCacheToEmbedder(e ai.IEmbedder, opts LRUOptions) ai.IEmbedder {
	if e == nil || opts.Size <= 0 || opts.TTL <= 0 {
		return e
	}
	return &lruEmbedder{
		next:    e,
		cache:   expirable.NewLRU[string, []float32](opts.Size, nil, opts.TTL),
		metrics: opts.Metrics,
	}
}

type lruEmbedder struct {
	next    ai.IEmbedder
	cache   *expirable.LRU[string, []float32]
	metrics *metrics.Metrics
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key, _, _ := buildCacheKey(l.next.ModelName(), taskType, text)
	cached, hit := l.cache.Get(key)
	l.metrics.ObserveCacheLookup("lru", hit)
	if hit {
		return copyVector(cached), nil
	}
	vec, err := l.next.Embed(ctx, text, taskType)
	if err != nil || len(vec) == 0 {
		return vec, err
	}
	l.cache.Add(key, copyVector(vec))
	return vec, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

// copyVector keeps callers from mutating cached entries.
func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
