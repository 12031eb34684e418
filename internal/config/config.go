package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port                 int                  `json:"port"`
	JWTSecret            string               `json:"jwt_secret"`
	CORSOrigins          []string             `json:"cors_origins"`
	ChatRateLimitSeconds int                  `json:"chat_rate_limit_seconds"`
	LogConfig            logger.LogConfig     `json:"log_config"`
	Database             DatabaseConfig       `json:"database"`
	AI                   AIConfig             `json:"ai"`
	Context              ContextConfig        `json:"context"`
	Quota                QuotaConfig          `json:"quota"`
	EmbeddingCache       EmbeddingCacheConfig `json:"embedding_cache"`
}

type DatabaseConfig struct {
	DSN          string `json:"dsn"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"dbname"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type ProviderConfig struct {
	Name string                 `json:"name"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// ModelConfig binds a chat model key ("gemini", "deepseek") to a provider.
type ModelConfig struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	Temperature      float32 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	MultiDocMaxToken int     `json:"multi_doc_max_tokens"`
	HistoryMessages  int     `json:"history_messages"`
}

type EmbeddingConfig struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Dimensions    int    `json:"dimensions"`
	MaxInputChars int    `json:"max_input_chars"`
	RetryAttempts int    `json:"retry_attempts"`
	RetryDelayMs  int    `json:"retry_delay_ms"`
	RetryMaxMs    int    `json:"retry_max_delay_ms"`
}

type AIConfig struct {
	Timeout      int                    `json:"timeout"`
	DefaultModel string                 `json:"default_model"`
	Providers    []ProviderConfig       `json:"providers"`
	Models       map[string]ModelConfig `json:"models"`
	Embedding    EmbeddingConfig        `json:"embedding"`
}

type ThresholdConfig struct {
	Threshold int `json:"threshold"`
}

type ContextConfig struct {
	TokenThresholds map[string]ThresholdConfig `json:"token_thresholds"`
}

type QuotaConfig struct {
	DailyLimit int         `json:"daily_limit"`
	Store      string      `json:"store"`
	Redis      RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type EmbeddingCacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	EnableDB      bool   `json:"enable_db"`
	MaxAgeDays    int    `json:"max_age_days"`
	CleanupCron   string `json:"cleanup_cron"`
}

// envOverrides are secrets that may be kept out of the config file.
type envOverrides struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	JWTSecret      string `env:"JWT_SECRET"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if ov.DatabaseURL != "" {
		c.Database.DSN = ov.DatabaseURL
	}
	if ov.JWTSecret != "" {
		c.JWTSecret = ov.JWTSecret
	}
	if ov.RedisAddr != "" {
		c.Quota.Redis.Addr = ov.RedisAddr
	}
	if ov.RedisPassword != "" {
		c.Quota.Redis.Password = ov.RedisPassword
	}
	for i := range c.AI.Providers {
		p := &c.AI.Providers[i]
		key := ""
		switch strings.ToLower(p.Type) {
		case "gemini":
			key = ov.GeminiAPIKey
		case "deepseek":
			key = ov.DeepSeekAPIKey
		}
		if key == "" {
			continue
		}
		if p.Data == nil {
			p.Data = map[string]interface{}{}
		}
		if v, _ := p.Data["api_key"].(string); v == "" {
			p.Data["api_key"] = key
		}
	}
	return nil
}

func (c *Config) normalize() error {
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.ChatRateLimitSeconds < 0 {
		c.ChatRateLimitSeconds = 0
	}
	if err := c.AI.normalize(); err != nil {
		return err
	}
	if len(c.Context.TokenThresholds) == 0 {
		c.Context.TokenThresholds = map[string]ThresholdConfig{
			"gemini":   {Threshold: 100000},
			"deepseek": {Threshold: 25000},
		}
	}
	for model, th := range c.Context.TokenThresholds {
		if th.Threshold <= 0 {
			return fmt.Errorf("context.token_thresholds.%s.threshold must be positive", model)
		}
	}
	if c.Quota.DailyLimit == 0 {
		c.Quota.DailyLimit = 10
	}
	if c.Quota.Store == "" {
		c.Quota.Store = "postgres"
	}
	switch c.Quota.Store {
	case "postgres":
	case "redis":
		if c.Quota.Redis.Addr == "" {
			return fmt.Errorf("quota.redis.addr is required for redis store")
		}
	default:
		return fmt.Errorf("quota.store must be postgres or redis")
	}
	if c.EmbeddingCache.LRUSize == 0 {
		c.EmbeddingCache.LRUSize = 1000
	}
	if c.EmbeddingCache.LRUTTLMinutes == 0 {
		c.EmbeddingCache.LRUTTLMinutes = 60
	}
	if c.EmbeddingCache.MaxAgeDays == 0 {
		c.EmbeddingCache.MaxAgeDays = 30
	}
	if c.EmbeddingCache.CleanupCron == "" {
		c.EmbeddingCache.CleanupCron = "30 3 * * *"
	}
	return nil
}

func (a *AIConfig) normalize() error {
	if a.Timeout == 0 {
		a.Timeout = 60
	}
	names := make(map[string]struct{}, len(a.Providers))
	for i := range a.Providers {
		p := &a.Providers[i]
		if p.Type == "" {
			return fmt.Errorf("ai.providers[%d].type is required", i)
		}
		if p.Name == "" {
			p.Name = p.Type
		}
		names[p.Name] = struct{}{}
	}
	if len(a.Models) == 0 {
		return fmt.Errorf("ai.models is required")
	}
	for key, m := range a.Models {
		if _, ok := names[m.Provider]; !ok {
			return fmt.Errorf("ai.models.%s.provider %q is not defined", key, m.Provider)
		}
		if m.Model == "" {
			return fmt.Errorf("ai.models.%s.model is required", key)
		}
		if m.Temperature == 0 {
			m.Temperature = 0.7
		}
		if m.MaxTokens == 0 {
			m.MaxTokens = 2048
		}
		if m.MultiDocMaxToken == 0 {
			m.MultiDocMaxToken = 4096
		}
		a.Models[key] = m
	}
	if a.DefaultModel == "" {
		a.DefaultModel = "deepseek"
	}
	if _, ok := a.Models[a.DefaultModel]; !ok {
		return fmt.Errorf("ai.default_model %q is not in ai.models", a.DefaultModel)
	}
	e := &a.Embedding
	if e.Provider != "" {
		if _, ok := names[e.Provider]; !ok {
			return fmt.Errorf("ai.embedding.provider %q is not defined", e.Provider)
		}
		if e.Model == "" {
			e.Model = "text-embedding-004"
		}
		if e.Dimensions == 0 {
			e.Dimensions = 768
		}
		if e.MaxInputChars == 0 {
			e.MaxInputChars = 9000
		}
		if e.RetryAttempts == 0 {
			e.RetryAttempts = 3
		}
		if e.RetryDelayMs == 0 {
			e.RetryDelayMs = 500
		}
		if e.RetryMaxMs == 0 {
			e.RetryMaxMs = 4000
		}
	}
	return nil
}

// Thresholds flattens the token threshold table for the context selector.
func (c *Config) Thresholds() map[string]int {
	out := make(map[string]int, len(c.Context.TokenThresholds))
	for model, th := range c.Context.TokenThresholds {
		out[model] = th.Threshold
	}
	return out
}
