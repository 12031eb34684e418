package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yirikai/yirikai/internal/pkg/errcode"
	"github.com/yirikai/yirikai/internal/pkg/jwt"
	"github.com/yirikai/yirikai/internal/pkg/response"
)

const (
	ContextUserIDKey = "user_id"
	contextEmailKey  = "user_email"
)

// JWTAuth verifies HS256 bearer tokens issued by the external auth service.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			response.Error(c, errcode.ErrUnauthorized, msg)
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token, secret)
		if err != nil || claims.UserID() == "" {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID())
		if claims.Email != "" {
			c.Set(contextEmailKey, claims.Email)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization"
	}
	return strings.TrimSpace(token), ""
}
