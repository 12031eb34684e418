package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/yirikai/yirikai/internal/metrics"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
	"github.com/yirikai/yirikai/internal/pkg/timeutil"
)

const DefaultDailyLimit = 10

var ErrLimitReached = fmt.Errorf("daily query limit reached: %w", appErr.ErrTooMany)

// Status is the caller's quota for the current UTC day.
type Status struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
	Used      int `json:"used"`
}

// Store keeps one counter per user and day (YYYY-MM-DD).
type Store interface {
	Used(ctx context.Context, userID, day string) (int, error)
	Incr(ctx context.Context, userID, day string) (int, error)
}

// Limiter enforces the daily query limit. Check runs before a chat turn and
// Increment only after the turn produced an answer, so failed turns are free.
type Limiter struct {
	store   Store
	limit   int
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLimiter(store Store, limit int, m *metrics.Metrics) *Limiter {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Limiter{store: store, limit: limit, metrics: m, now: time.Now}
}

func (l *Limiter) Status(ctx context.Context, userID string) (Status, error) {
	used, err := l.store.Used(ctx, userID, timeutil.Day(l.now()))
	if err != nil {
		return Status{}, fmt.Errorf("read query count: %w", err)
	}
	return l.status(used), nil
}

func (l *Limiter) Check(ctx context.Context, userID string) (Status, error) {
	st, err := l.Status(ctx, userID)
	if err != nil {
		return st, err
	}
	if st.Remaining <= 0 {
		l.metrics.ObserveQueryLimitRejection()
		return st, ErrLimitReached
	}
	return st, nil
}

func (l *Limiter) Increment(ctx context.Context, userID string) (Status, error) {
	used, err := l.store.Incr(ctx, userID, timeutil.Day(l.now()))
	if err != nil {
		return Status{}, fmt.Errorf("increment query count: %w", err)
	}
	return l.status(used), nil
}

func (l *Limiter) status(used int) Status {
	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Status{Remaining: remaining, Limit: l.limit, Used: used}
}
