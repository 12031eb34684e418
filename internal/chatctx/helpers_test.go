package chatctx

import (
	"context"
	"errors"
	"strings"
	"sync"
)

func strp(s string) *string {
	return &s
}

func text(ch byte, n int) string {
	return strings.Repeat(string(ch), n)
}

type fakeEmbedder struct {
	mu    sync.Mutex
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnswerer struct {
	answer      string
	err         error
	calls       int
	multiCalls  int
	lastContext string
	lastModel   string
}

func (f *fakeAnswerer) GenerateAnswer(ctx context.Context, question, contextText, model string) (string, error) {
	f.calls++
	f.lastContext = contextText
	f.lastModel = model
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeAnswerer) GenerateAnswerMultiDoc(ctx context.Context, question, combinedContext, model string) (string, error) {
	f.multiCalls++
	f.lastContext = combinedContext
	f.lastModel = model
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

var errStoreDown = errors.New("connection refused")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) ListChunks(ctx context.Context, documentID string, limit int) ([]Chunk, error) {
	return nil, errStoreDown
}

func (brokenStore) SumContentLength(ctx context.Context, documentID string) (int, error) {
	return 0, errStoreDown
}

func (brokenStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	return 0, errStoreDown
}

func (brokenStore) TopKByCosineDistance(ctx context.Context, documentID string, query []float32, k int) ([]Chunk, error) {
	return nil, errStoreDown
}
