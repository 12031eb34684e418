package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalConfig = `{
  "port": 8000,
  "jwt_secret": "secret",
  "database": {"host": "localhost", "user": "yirikai", "dbname": "yirikai"},
  "ai": {
    "providers": [
      {"name": "gemini", "type": "gemini", "data": {}},
      {"name": "deepseek", "type": "deepseek", "data": {"api_key": "from-file"}}
    ],
    "models": {
      "gemini": {"provider": "gemini", "model": "gemini-2.5-flash"},
      "deepseek": {"provider": "deepseek", "model": "deepseek-chat", "max_tokens": 1024}
    },
    "embedding": {"provider": "gemini"}
  }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "deepseek", cfg.AI.DefaultModel)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, map[string]int{"gemini": 100000, "deepseek": 25000}, cfg.Thresholds())
	require.Equal(t, 10, cfg.Quota.DailyLimit)
	require.Equal(t, "postgres", cfg.Quota.Store)

	require.Equal(t, float32(0.7), cfg.AI.Models["gemini"].Temperature)
	require.Equal(t, 2048, cfg.AI.Models["gemini"].MaxTokens)
	require.Equal(t, 1024, cfg.AI.Models["deepseek"].MaxTokens)
	require.Equal(t, 4096, cfg.AI.Models["deepseek"].MultiDocMaxToken)

	require.Equal(t, "text-embedding-004", cfg.AI.Embedding.Model)
	require.Equal(t, 768, cfg.AI.Embedding.Dimensions)
	require.Equal(t, 9000, cfg.AI.Embedding.MaxInputChars)
	require.Equal(t, 3, cfg.AI.Embedding.RetryAttempts)
	require.Equal(t, "30 3 * * *", cfg.EmbeddingCache.CleanupCron)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db/yirikai")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db/yirikai", cfg.Database.DSN)
	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, "gem-key", cfg.AI.Providers[0].Data["api_key"])
	require.Equal(t, "from-file", cfg.AI.Providers[1].Data["api_key"], "file value wins over env")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no database", content: `{"port": 1, "jwt_secret": "s", "ai": {"providers": [{"type": "gemini"}], "models": {"deepseek": {"provider": "gemini", "model": "m"}}}}`},
		{name: "no jwt secret", content: `{"port": 1, "database": {"host": "h"}}`},
		{name: "unknown provider", content: `{"port": 1, "jwt_secret": "s", "database": {"host": "h"}, "ai": {"models": {"deepseek": {"provider": "x", "model": "m"}}}}`},
		{name: "bad threshold", content: `{"port": 1, "jwt_secret": "s", "database": {"host": "h"}, "ai": {"providers": [{"type": "gemini"}], "models": {"deepseek": {"provider": "gemini", "model": "m"}}}, "context": {"token_thresholds": {"gemini": {"threshold": 0}}}}`},
		{name: "redis without addr", content: `{"port": 1, "jwt_secret": "s", "database": {"host": "h"}, "ai": {"providers": [{"type": "gemini"}], "models": {"deepseek": {"provider": "gemini", "model": "m"}}}, "quota": {"store": "redis"}}`},
		{name: "bad json", content: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}
