package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

// Route binds a chat model key to the provider and parameters serving it.
type Route struct {
	Provider          IAIProvider
	Model             string
	Temperature       float32
	MaxTokens         int
	MultiDocMaxTokens int
	HistoryMessages   int
}

type AnswererConfig struct {
	Timeout      int
	DefaultModel string
}

// Answerer routes chat turns to the configured model providers.
type Answerer struct {
	routes map[string]Route
	cfg    AnswererConfig
}

func NewAnswerer(routes map[string]Route, cfg AnswererConfig) *Answerer {
	normalized := make(map[string]Route, len(routes))
	for key, r := range routes {
		normalized[strings.ToLower(strings.TrimSpace(key))] = r
	}
	cfg.DefaultModel = strings.ToLower(strings.TrimSpace(cfg.DefaultModel))
	return &Answerer{routes: normalized, cfg: cfg}
}

// ResolveModel maps an optional client model key to a configured one.
func (a *Answerer) ResolveModel(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = a.cfg.DefaultModel
	}
	if _, ok := a.routes[key]; !ok {
		return "", fmt.Errorf("unknown model %q: %w", key, appErr.ErrInvalid)
	}
	return key, nil
}

func (a *Answerer) Models() []string {
	out := make([]string, 0, len(a.routes))
	for key := range a.routes {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (a *Answerer) GenerateAnswer(ctx context.Context, question, contextText, model string) (string, error) {
	return a.answer(ctx, false, question, contextText, model)
}

func (a *Answerer) GenerateAnswerMultiDoc(ctx context.Context, question, combinedContext, model string) (string, error) {
	return a.answer(ctx, true, question, combinedContext, model)
}

func (a *Answerer) answer(ctx context.Context, multi bool, question, contextText, model string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(model))
	route, ok := a.routes[key]
	if !ok || route.Provider == nil {
		return "", fmt.Errorf("%w: %s: not configured", appErr.ErrModelUnavailable, key)
	}
	history := historyFrom(ctx)
	if route.HistoryMessages <= 0 {
		history = nil
	} else if len(history) > route.HistoryMessages {
		history = history[len(history)-route.HistoryMessages:]
	}
	system, msgs := buildMessages(multi, contextText, question, history)
	req := &ChatRequest{
		Model:       route.Model,
		System:      system,
		Messages:    msgs,
		Temperature: route.Temperature,
		MaxTokens:   route.MaxTokens,
	}
	if multi && route.MultiDocMaxTokens > 0 {
		req.MaxTokens = route.MultiDocMaxTokens
	}
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := route.Provider.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", appErr.ErrModelUnavailable, key, err)
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty ai response", appErr.ErrModelUnavailable, key)
	}
	return text, nil
}

type historyKey struct{}

// WithHistory attaches earlier turns of the conversation, oldest first.
func WithHistory(ctx context.Context, history []Message) context.Context {
	if len(history) == 0 {
		return ctx
	}
	return context.WithValue(ctx, historyKey{}, history)
}

func historyFrom(ctx context.Context) []Message {
	v, _ := ctx.Value(historyKey{}).([]Message)
	return v
}
