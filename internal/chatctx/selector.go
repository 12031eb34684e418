package chatctx

import (
	"context"
	"fmt"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

// Decision is the outcome of mode selection for one turn.
type Decision struct {
	Mode      Mode
	Tokens    int
	Threshold int
}

type Selector struct {
	estimator  *Estimator
	store      ChunkStore
	thresholds *Thresholds
}

func NewSelector(store ChunkStore, thresholds *Thresholds) *Selector {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &Selector{
		estimator:  NewEstimator(store),
		store:      store,
		thresholds: thresholds,
	}
}

func (s *Selector) Thresholds() *Thresholds {
	return s.thresholds
}

// SelectMode picks FULL below the model threshold, RAG at or above it, and
// EMPTY when the document has no chunks at all.
func (s *Selector) SelectMode(ctx context.Context, documentID string, model string) (Decision, error) {
	threshold := s.thresholds.For(model)
	tokens, err := s.estimator.EstimateTokens(ctx, documentID)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Tokens: tokens, Threshold: threshold, Mode: decide(tokens, threshold)}
	if tokens == 0 {
		count, err := s.store.CountChunks(ctx, documentID)
		if err != nil {
			return Decision{}, dataAccess(fmt.Sprintf("count chunks of %s", documentID), err)
		}
		if count == 0 {
			d.Mode = ModeEmpty
		}
	}
	return d, nil
}

// SelectModeMulti applies the multi-document threshold to the combined estimate.
func (s *Selector) SelectModeMulti(ctx context.Context, documentIDs []string, model string) (Decision, error) {
	if len(documentIDs) == 0 {
		return Decision{}, fmt.Errorf("select mode: no documents: %w", appErr.ErrInvalid)
	}
	threshold := s.thresholds.ForMulti(model)
	est, err := s.estimator.EstimateTokensMulti(ctx, documentIDs)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Tokens: est.TotalTokens, Threshold: threshold, Mode: decide(est.TotalTokens, threshold)}
	if est.TotalTokens == 0 {
		total := 0
		for id := range est.PerDocumentChars {
			count, err := s.store.CountChunks(ctx, id)
			if err != nil {
				return Decision{}, dataAccess(fmt.Sprintf("count chunks of %s", id), err)
			}
			total += count
		}
		if total == 0 {
			d.Mode = ModeEmpty
		}
	}
	return d, nil
}

func decide(tokens, threshold int) Mode {
	if tokens < threshold {
		return ModeFull
	}
	return ModeRAG
}
