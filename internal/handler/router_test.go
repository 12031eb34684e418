package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/chatctx"
	"github.com/yirikai/yirikai/internal/handler"
	"github.com/yirikai/yirikai/internal/metrics"
	"github.com/yirikai/yirikai/internal/middleware"
	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/errcode"
	"github.com/yirikai/yirikai/internal/pkg/jwt"
	"github.com/yirikai/yirikai/internal/quota"
	"github.com/yirikai/yirikai/internal/repo"
	"github.com/yirikai/yirikai/internal/service"
	"github.com/yirikai/yirikai/internal/testutil"
)

var testSecret = []byte("test-secret")

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Chat(ctx context.Context, req *ai.ChatRequest) (string, error) {
	return "stub answer", nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (http.Handler, *repo.DocumentRepo, *repo.ChunkRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	profiles := repo.NewUserProfileRepo(db)
	answerer := ai.NewAnswerer(map[string]ai.Route{
		"deepseek": {Provider: stubProvider{}, Model: "deepseek-chat"},
	}, ai.AnswererConfig{DefaultModel: "deepseek"})
	orchestrator := chatctx.NewOrchestrator(chatctx.NewSelector(chunks, nil), chatctx.NewAssembler(chunks, nil, m), answerer, m)
	chat := service.NewChatService(docs, profiles, repo.NewChatSessionRepo(db), repo.NewChatMessageRepo(db),
		orchestrator, quota.NewLimiter(quota.NewPostgresStore(profiles), 10, m), answerer)
	multi := service.NewMultiSessionService(chat, repo.NewMultiSessionRepo(db), repo.NewMultiSessionMessageRepo(db))

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, handler.RouterDeps{
				Chat:      handler.NewChatHandler(chat, multi),
				Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				JWTSecret: testSecret,
			})
		}),
		webapi.WithExtraMiddlewares(middleware.CORS(nil)),
	)
	require.NoError(t, err)
	return engine, docs, chunks
}

func do(t *testing.T, router http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env envelope
	if bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestChatRoutes(t *testing.T) {
	router, docs, chunks := setupRouter(t)
	ctx := context.Background()
	user := uuid.NewString()
	token, err := jwt.GenerateToken(user, "student@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	docID := uuid.NewString()
	require.NoError(t, docs.Create(ctx, &model.Document{ID: docID, UserID: user, Title: "Notes", Status: "completed",
		Visibility: model.DocumentVisibilityPrivate}))
	content := "lecture one"
	require.NoError(t, chunks.Create(ctx, &model.DocumentChunk{DocumentID: docID, Content: &content}))

	rec, env := do(t, router, http.MethodGet, "/api/v1/chat/query-status", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, errcode.ErrUnauthorized, env.Code)

	rec, env = do(t, router, http.MethodPost, "/api/v1/chat/message", token,
		map[string]string{"document_id": docID, "message": "what is covered?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var reply struct {
		SessionID   string       `json:"session_id"`
		Message     string       `json:"message"`
		Sender      string       `json:"sender"`
		ContextMode string       `json:"context_mode"`
		QueryLimit  quota.Status `json:"query_limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	require.Equal(t, "stub answer", reply.Message)
	require.Equal(t, "ai", reply.Sender)
	require.Equal(t, "full", reply.ContextMode)
	require.Equal(t, 1, reply.QueryLimit.Used)

	rec, env = do(t, router, http.MethodGet, "/api/v1/chat/history/"+docID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		SessionID *string `json:"session_id"`
		Messages  []struct {
			Sender string `json:"sender"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Equal(t, reply.SessionID, *history.SessionID)
	require.Len(t, history.Messages, 2)

	rec, env = do(t, router, http.MethodPost, "/api/v1/chat/multi-document", token,
		map[string]interface{}{"document_ids": []string{}, "message": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, errcode.ErrInvalid, env.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/chat/multi-document/session/"+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "context_decisions_total")
}
