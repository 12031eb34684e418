package chatctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

func TestEstimateTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	est := NewEstimator(store)

	tokens, err := est.EstimateTokens(ctx, "missing")
	require.NoError(t, err)
	require.Equal(t, 0, tokens)

	store.Add("doc", 0, strp(text('a', 7)), nil)
	store.Add("doc", 1, nil, nil)
	tokens, err = est.EstimateTokens(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, 1, tokens, "7 chars floor to 1 token, null content counts 0")
}

func TestEstimateTokensCountsCharactersNotBytes(t *testing.T) {
	store := NewMemoryStore()
	store.Add("doc", 0, strp("čćžšđ čćžšđ"), nil)
	tokens, err := NewEstimator(store).EstimateTokens(context.Background(), "doc")
	require.NoError(t, err)
	require.Equal(t, 2, tokens)
}

func TestEstimateTokensIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	est := NewEstimator(store)
	prev := 0
	for i, n := range []int{1, 3, 4, 9, 2, 100, 1} {
		store.Add("doc", i, strp(text('x', n)), nil)
		tokens, err := est.EstimateTokens(ctx, "doc")
		require.NoError(t, err)
		require.GreaterOrEqual(t, tokens, prev)
		prev = tokens
	}
	again, err := est.EstimateTokens(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, prev, again)
}

func TestEstimateTokensMultiDividesOnce(t *testing.T) {
	store := NewMemoryStore()
	store.Add("a", 0, strp(text('a', 3)), nil)
	store.Add("b", 0, strp(text('b', 3)), nil)

	res, err := NewEstimator(store).EstimateTokensMulti(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Equal(t, 6, res.TotalChars)
	require.Equal(t, 1, res.TotalTokens, "3/4 + 3/4 would be 0")
	require.Equal(t, map[string]int{"a": 3, "b": 3}, res.PerDocumentChars)
}

func TestEstimateTokensWrapsStoreFailure(t *testing.T) {
	_, err := NewEstimator(brokenStore{}).EstimateTokens(context.Background(), "doc")
	require.ErrorIs(t, err, appErr.ErrDataAccess)
	require.ErrorIs(t, err, errStoreDown)

	_, err = NewEstimator(brokenStore{}).EstimateTokensMulti(context.Background(), []string{"doc"})
	require.ErrorIs(t, err, appErr.ErrDataAccess)
}
