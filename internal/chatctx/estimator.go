package chatctx

import (
	"context"
	"errors"
	"fmt"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

// CharsPerToken is the heuristic ratio used to turn characters into tokens.
const CharsPerToken = 4

type Estimator struct {
	store ChunkStore
}

func NewEstimator(store ChunkStore) *Estimator {
	return &Estimator{store: store}
}

// EstimateTokens returns floor(total characters / 4) over all chunks of the document.
func (e *Estimator) EstimateTokens(ctx context.Context, documentID string) (int, error) {
	chars, err := e.store.SumContentLength(ctx, documentID)
	if err != nil {
		return 0, dataAccess(fmt.Sprintf("sum content length of %s", documentID), err)
	}
	return chars / CharsPerToken, nil
}

type MultiEstimate struct {
	PerDocumentChars map[string]int
	TotalChars       int
	TotalTokens      int
}

// EstimateTokensMulti sums characters across documents and divides once, so
// per-document remainders are not lost.
func (e *Estimator) EstimateTokensMulti(ctx context.Context, documentIDs []string) (*MultiEstimate, error) {
	out := &MultiEstimate{PerDocumentChars: make(map[string]int, len(documentIDs))}
	for _, id := range documentIDs {
		if _, seen := out.PerDocumentChars[id]; seen {
			continue
		}
		chars, err := e.store.SumContentLength(ctx, id)
		if err != nil {
			return nil, dataAccess(fmt.Sprintf("sum content length of %s", id), err)
		}
		out.PerDocumentChars[id] = chars
		out.TotalChars += chars
	}
	out.TotalTokens = out.TotalChars / CharsPerToken
	return out, nil
}

func dataAccess(op string, err error) error {
	if errors.Is(err, appErr.ErrDataAccess) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, appErr.ErrDataAccess, err)
}
