package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/metrics"
	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/timeutil"
)

// Store is the persistent side of the embedding cache (repo.EmbeddingCacheRepo).
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// WrapDBCacheToEmbedder persists embeddings across restarts. Cache read and
// write failures are logged and never fail the embedding itself.
func WrapDBCacheToEmbedder(e ai.IEmbedder, store Store, m *metrics.Metrics) ai.IEmbedder {
	if e == nil || store == nil {
		return e
	}
	return &dbEmbedder{next: e, store: store, metrics: m}
}

type dbEmbedder struct {
	next    ai.IEmbedder
	store   Store
	metrics *metrics.Metrics
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("task_type", taskType))
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, text)
	values, ok, err := d.store.Get(ctx, modelName, taskType, contentHash)
	if err != nil {
		logger.Warn("read embedding cache failed", zap.Error(err))
	}
	hit := ok && len(values) > 0
	d.metrics.ObserveCacheLookup("db", hit)
	if hit {
		logger.Debug("embedding cache hit (db)")
		return values, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		TaskType:    taskType,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       timeutil.NowUnix(),
	}); err != nil {
		logger.Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

// buildCacheKey hashes the normalised text so whitespace-only differences in
// a question share an entry.
func buildCacheKey(modelName, taskType, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(ai.NormalizeForCache(text)))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + taskType + ":" + contentHash, contentHash, modelName
}
