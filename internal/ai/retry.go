package ai

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// WrapRetryToEmbedder retries transient embedding failures with exponential
// backoff. A missing API key and 4xx replies other than 429 are not retried.
func WrapRetryToEmbedder(e IEmbedder, cfg RetryConfig) IEmbedder {
	if e == nil || cfg.Attempts <= 1 {
		return e
	}
	return &retryEmbedder{next: e, cfg: cfg}
}

type retryEmbedder struct {
	next IEmbedder
	cfg  RetryConfig
}

func (r *retryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return retry.DoWithData(
		func() ([]float32, error) {
			return r.next.Embed(ctx, text, taskType)
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.cfg.Attempts)),
		retry.Delay(r.cfg.Delay),
		retry.MaxDelay(r.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logutil.GetLogger(ctx).Warn("embedding attempt failed",
				zap.Uint("attempt", n+1), zap.String("model", r.next.ModelName()), zap.Error(err))
		}),
	)
}

func (r *retryEmbedder) ModelName() string {
	return r.next.ModelName()
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode >= 500
	}
	return true
}
