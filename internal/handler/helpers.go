package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/middleware"
	"github.com/yirikai/yirikai/internal/pkg/errcode"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
	"github.com/yirikai/yirikai/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "access denied")
	case errors.Is(err, appErr.ErrEmptyDocument):
		response.Error(c, errcode.ErrEmptyDocument, "document has no content")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrQueryLimit, "daily query limit reached")
	case errors.Is(err, appErr.ErrModelUnavailable):
		response.ErrorWithStatus(c, upstreamStatus(err), errcode.ErrAIUnavailable, "model unavailable")
	case errors.Is(err, appErr.ErrDataAccess):
		response.Error(c, errcode.ErrDataAccess, "internal error")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// upstreamStatus passes through the provider's error status when there is one.
func upstreamStatus(err error) int {
	var se *ai.StatusError
	if errors.As(err, &se) && se.StatusCode >= http.StatusBadRequest && se.StatusCode < 600 {
		return se.StatusCode
	}
	return http.StatusServiceUnavailable
}
