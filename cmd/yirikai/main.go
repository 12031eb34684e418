package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/chatctx"
	"github.com/yirikai/yirikai/internal/config"
	"github.com/yirikai/yirikai/internal/db"
	"github.com/yirikai/yirikai/internal/embedcache"
	"github.com/yirikai/yirikai/internal/handler"
	"github.com/yirikai/yirikai/internal/job"
	"github.com/yirikai/yirikai/internal/metrics"
	"github.com/yirikai/yirikai/internal/middleware"
	"github.com/yirikai/yirikai/internal/quota"
	"github.com/yirikai/yirikai/internal/repo"
	"github.com/yirikai/yirikai/internal/schedule"
	"github.com/yirikai/yirikai/internal/service"
)

func main() {
	var configPath string
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "yirikai",
		Short: "yirikai document chat backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run yirikai server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			sqlDB, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer sqlDB.Close()
			if err := db.ApplyMigrations(sqlDB); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, sqlDB)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	runCmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file with secrets")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, sqlDB *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("default_model", cfg.AI.DefaultModel),
		zap.String("quota_store", cfg.Quota.Store),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	docRepo := repo.NewDocumentRepo(sqlDB)
	chunkRepo := repo.NewChunkRepo(sqlDB)
	profileRepo := repo.NewUserProfileRepo(sqlDB)
	sessionRepo := repo.NewChatSessionRepo(sqlDB)
	messageRepo := repo.NewChatMessageRepo(sqlDB)
	multiSessionRepo := repo.NewMultiSessionRepo(sqlDB)
	multiMessageRepo := repo.NewMultiSessionMessageRepo(sqlDB)
	cacheRepo := repo.NewEmbeddingCacheRepo(sqlDB)

	answerer, err := buildAnswerer(cfg.AI)
	if err != nil {
		return err
	}
	embedder, err := buildQueryEmbedder(cfg, cacheRepo, m)
	if err != nil {
		return err
	}
	thresholds, err := chatctx.NewThresholds(cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("init thresholds: %w", err)
	}
	orchestrator := chatctx.NewOrchestrator(
		chatctx.NewSelector(chunkRepo, thresholds),
		chatctx.NewAssembler(chunkRepo, embedder, m),
		answerer,
		m,
	)

	quotaStore, err := quota.NewStore(ctx, cfg.Quota, profileRepo)
	if err != nil {
		return fmt.Errorf("init quota store: %w", err)
	}
	limiter := quota.NewLimiter(quotaStore, cfg.Quota.DailyLimit, m)

	chatService := service.NewChatService(docRepo, profileRepo, sessionRepo, messageRepo, orchestrator, limiter, answerer)
	multiService := service.NewMultiSessionService(chatService, multiSessionRepo, multiMessageRepo)

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chatService, multiService),
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		JWTSecret:     []byte(cfg.JWTSecret),
		ChatRateLimit: time.Duration(cfg.ChatRateLimitSeconds) * time.Second,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if cfg.EmbeddingCache.EnableDB {
		cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.EmbeddingCache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.EmbeddingCache.CleanupCron); err != nil {
			return fmt.Errorf("schedule %s: %w", cleanup.Name(), err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func buildAnswerer(cfg config.AIConfig) (*ai.Answerer, error) {
	providers := make(map[string]ai.IAIProvider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		provider, err := ai.NewProvider(p.Type, p.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", p.Name, err)
		}
		providers[p.Name] = provider
	}
	routes := make(map[string]ai.Route, len(cfg.Models))
	for key, mc := range cfg.Models {
		routes[key] = ai.Route{
			Provider:          providers[mc.Provider],
			Model:             mc.Model,
			Temperature:       mc.Temperature,
			MaxTokens:         mc.MaxTokens,
			MultiDocMaxTokens: mc.MultiDocMaxToken,
			HistoryMessages:   mc.HistoryMessages,
		}
	}
	return ai.NewAnswerer(routes, ai.AnswererConfig{Timeout: cfg.Timeout, DefaultModel: cfg.DefaultModel}), nil
}

// buildQueryEmbedder returns a nil interface when embedding is not configured
// so the assembler falls back to leading chunks.
func buildQueryEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo, m *metrics.Metrics) (chatctx.QueryEmbedder, error) {
	ec := cfg.AI.Embedding
	if ec.Provider == "" {
		logutil.GetLogger(context.Background()).Warn("query embedding disabled, rag mode uses leading chunks")
		return nil, nil
	}
	var pc *config.ProviderConfig
	for i := range cfg.AI.Providers {
		if cfg.AI.Providers[i].Name == ec.Provider {
			pc = &cfg.AI.Providers[i]
			break
		}
	}
	if pc == nil {
		return nil, fmt.Errorf("embedding provider %q is not defined", ec.Provider)
	}
	args := make(map[string]interface{}, len(pc.Data)+1)
	for k, v := range pc.Data {
		args[k] = v
	}
	if _, ok := args["output_dimensionality"]; !ok && ec.Dimensions > 0 {
		args["output_dimensionality"] = ec.Dimensions
	}
	provider, err := ai.NewEmbedProvider(pc.Type, args)
	if err != nil {
		return nil, fmt.Errorf("init embed provider %s: %w", pc.Name, err)
	}
	embedder := ai.NewEmbedder(provider, ec.Model)
	embedder = ai.WrapRetryToEmbedder(embedder, ai.RetryConfig{
		Attempts: ec.RetryAttempts,
		Delay:    time.Duration(ec.RetryDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(ec.RetryMaxMs) * time.Millisecond,
	})
	if cfg.EmbeddingCache.EnableDB {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo, m)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, embedcache.LRUOptions{
		Size:    cfg.EmbeddingCache.LRUSize,
		TTL:     time.Duration(cfg.EmbeddingCache.LRUTTLMinutes) * time.Minute,
		Metrics: m,
	})
	return ai.NewQueryEmbedder(embedder, ec.MaxInputChars, ec.Dimensions), nil
}
