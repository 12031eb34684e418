package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	cutoff int64
	err    error
}

func (f *fakeCleaner) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestEmbeddingCacheCleanupCutoff(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	cleaner := &fakeCleaner{}
	j := NewEmbeddingCacheCleanupJob(cleaner, 7)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.AddDate(0, 0, -7).Unix(), cleaner.cutoff)
}

func TestEmbeddingCacheCleanupDefaults(t *testing.T) {
	require.Equal(t, defaultCacheMaxAgeDays, NewEmbeddingCacheCleanupJob(nil, 0).maxAgeDays)
	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 5).Run(context.Background()))

	cleaner := &fakeCleaner{err: errors.New("db down")}
	require.Error(t, NewEmbeddingCacheCleanupJob(cleaner, 5).Run(context.Background()))
}
