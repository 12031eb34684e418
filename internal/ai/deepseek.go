package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
)

type compatConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// compatProvider talks to any OpenAI-compatible chat completions API.
// DeepSeek caches identical message prefixes, so callers keep the system
// prompt and the context message stable across turns.
type compatProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

type compatChatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatChatMsg `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type compatChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens          int `json:"prompt_tokens"`
		CompletionTokens      int `json:"completion_tokens"`
		PromptCacheHitTokens  int `json:"prompt_cache_hit_tokens"`
		PromptCacheMissTokens int `json:"prompt_cache_miss_tokens"`
	} `json:"usage"`
}

type compatEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type compatEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *compatProvider) Name() string {
	return p.name
}

func (p *compatProvider) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	msgs := make([]compatChatMsg, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, compatChatMsg{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, compatChatMsg{Role: m.Role, Content: m.Content})
	}
	body := compatChatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	var out compatChatResponse
	if err := p.post(ctx, "/chat/completions", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	logutil.GetLogger(ctx).Debug("chat completion usage",
		zap.String("provider", p.name),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
		zap.Int("cache_hit_tokens", out.Usage.PromptCacheHitTokens),
		zap.Int("cache_miss_tokens", out.Usage.PromptCacheMissTokens),
	)
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (p *compatProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	var out compatEmbedResponse
	if err := p.post(ctx, "/embeddings", compatEmbedRequest{Model: model, Input: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%s response has no embeddings", p.name)
	}
	return out.Data[0].Embedding, nil
}

func (p *compatProvider) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	endpoint := strings.TrimRight(p.baseURL, "/") + path
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func newCompatProvider(name, defaultBaseURL string, args interface{}) (*compatProvider, error) {
	cfg := &compatConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &compatProvider{
		name:    name,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client:  http.DefaultClient,
	}, nil
}

func init() {
	Register("deepseek", func(args interface{}) (IAIProvider, error) {
		return newCompatProvider("deepseek", defaultDeepSeekBaseURL, args)
	})
	Register("openai", func(args interface{}) (IAIProvider, error) {
		return newCompatProvider("openai", defaultOpenAIBaseURL, args)
	})
	RegisterEmbed("openai", func(args interface{}) (IEmbedProvider, error) {
		return newCompatProvider("openai", defaultOpenAIBaseURL, args)
	})
}
