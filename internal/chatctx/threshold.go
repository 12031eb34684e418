package chatctx

import (
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultGeminiThreshold   = 100000
	DefaultDeepSeekThreshold = 25000
)

// Thresholds maps a model identifier to the token count at which a single
// document switches from full context to retrieval. It is immutable once built.
type Thresholds struct {
	byModel  map[string]int
	fallback int
}

func DefaultThresholds() *Thresholds {
	t, _ := NewThresholds(map[string]int{
		"gemini":   DefaultGeminiThreshold,
		"deepseek": DefaultDeepSeekThreshold,
	})
	return t
}

func NewThresholds(values map[string]int) (*Thresholds, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one token threshold is required")
	}
	t := &Thresholds{byModel: make(map[string]int, len(values))}
	for model, v := range values {
		key := normalizeModel(model)
		if key == "" {
			return nil, fmt.Errorf("token threshold model name is empty")
		}
		if v <= 0 {
			return nil, fmt.Errorf("token threshold for %s must be positive", model)
		}
		t.byModel[key] = v
		if t.fallback == 0 || v < t.fallback {
			t.fallback = v
		}
	}
	return t, nil
}

// For returns the threshold for model. Unknown models get the lowest
// configured threshold.
func (t *Thresholds) For(model string) int {
	if v, ok := t.byModel[normalizeModel(model)]; ok {
		return v
	}
	return t.fallback
}

// ForMulti is the combined threshold for multi-document turns: 1.5x the
// single-document value, rounded down.
func (t *Thresholds) ForMulti(model string) int {
	return t.For(model) * 3 / 2
}

func (t *Thresholds) Models() []string {
	out := make([]string, 0, len(t.byModel))
	for k := range t.byModel {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
