package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yirikai/yirikai/internal/metrics"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

type memStore struct {
	counts map[string]int
	err    error
}

func newMemStore() *memStore {
	return &memStore{counts: map[string]int{}}
}

func (m *memStore) Used(ctx context.Context, userID, day string) (int, error) {
	return m.counts[userID+"|"+day], m.err
}

func (m *memStore) Incr(ctx context.Context, userID, day string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[userID+"|"+day]++
	return m.counts[userID+"|"+day], nil
}

func TestLimiterCheckAndIncrement(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l := NewLimiter(newMemStore(), 2, m)
	ctx := context.Background()

	st, err := l.Check(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, Status{Remaining: 2, Limit: 2, Used: 0}, st)

	st, err = l.Increment(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, Status{Remaining: 1, Limit: 2, Used: 1}, st)

	_, err = l.Increment(ctx, "u1")
	require.NoError(t, err)
	st, err = l.Check(ctx, "u1")
	require.ErrorIs(t, err, ErrLimitReached)
	require.ErrorIs(t, err, appErr.ErrTooMany)
	require.Equal(t, 0, st.Remaining)
	require.Equal(t, float64(1), testutil.ToFloat64(m.QueryLimitRejections))

	// other users are unaffected
	_, err = l.Check(ctx, "u2")
	require.NoError(t, err)
}

func TestLimiterRollsOverAtDayChange(t *testing.T) {
	l := NewLimiter(newMemStore(), 1, nil)
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	l.now = func() time.Time { return day }
	ctx := context.Background()

	_, err := l.Increment(ctx, "u1")
	require.NoError(t, err)
	_, err = l.Check(ctx, "u1")
	require.ErrorIs(t, err, ErrLimitReached)

	day = day.Add(2 * time.Minute)
	st, err := l.Check(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, Status{Remaining: 1, Limit: 1, Used: 0}, st)
}

func TestLimiterRemainingNeverNegative(t *testing.T) {
	store := newMemStore()
	l := NewLimiter(store, 1, nil)
	for i := 0; i < 3; i++ {
		_, err := l.Increment(context.Background(), "u1")
		require.NoError(t, err)
	}
	st, err := l.Status(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, Status{Remaining: 0, Limit: 1, Used: 3}, st)
}

func TestLimiterStoreErrors(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("down")
	l := NewLimiter(store, 0, nil)
	_, err := l.Check(context.Background(), "u1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLimitReached)
	_, err = l.Increment(context.Background(), "u1")
	require.Error(t, err)
	require.Equal(t, DefaultDailyLimit, l.limit)
}

func TestExpiryFor(t *testing.T) {
	require.Equal(t, time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), expiryFor("2026-03-01"))
}
