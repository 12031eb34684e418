package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yirikai/yirikai/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Metrics       http.Handler
	JWTSecret     []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	if deps.Metrics != nil {
		api.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	chat := api.Group("/chat")
	chat.Use(middleware.JWTAuth(deps.JWTSecret))
	limited := middleware.RateLimit(deps.ChatRateLimit)

	chat.GET("/query-status", deps.Chat.QueryStatus)
	chat.POST("/message", limited, deps.Chat.SendMessage)
	chat.GET("/history/:document_id", deps.Chat.History)
	chat.POST("/multi-document", limited, deps.Chat.MultiDocument)

	chat.POST("/multi-document/session", deps.Chat.CreateSession)
	chat.GET("/multi-document/sessions", deps.Chat.ListSessions)
	chat.GET("/multi-document/session/:id", deps.Chat.GetSession)
	chat.PATCH("/multi-document/session/:id", deps.Chat.RenameSession)
	chat.DELETE("/multi-document/session/:id", deps.Chat.DeleteSession)
	chat.POST("/multi-document/session/:id/message", limited, deps.Chat.SessionMessage)
}
