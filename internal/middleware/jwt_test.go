package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yirikai/yirikai/internal/pkg/jwt"
)

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	engine := gin.New()
	engine.GET("/me", JWTAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserIDKey))
	})

	token, err := jwt.GenerateToken("7d1b2c3a-0000-4000-8000-000000000001", "a@b.c", secret, time.Hour)
	require.NoError(t, err)

	anonymous, err := jwt.GenerateToken("", "a@b.c", secret, time.Hour)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken("u1", "a@b.c", secret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + token, status: http.StatusOK, body: "7d1b2c3a-0000-4000-8000-000000000001"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + anonymous, status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusOK, body: "7d1b2c3a-0000-4000-8000-000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				require.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, msg := bearerToken("Bearer  abc ")
	require.Empty(t, msg)
	require.Equal(t, "abc", token)

	_, msg = bearerToken("Bearer ")
	require.Equal(t, "invalid authorization", msg)
	_, msg = bearerToken("")
	require.Equal(t, "missing authorization", msg)
}
