package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yirikai/yirikai/internal/pkg/errcode"
	"github.com/yirikai/yirikai/internal/pkg/response"
	"github.com/yirikai/yirikai/internal/service"
)

type ChatHandler struct {
	chat  *service.ChatService
	multi *service.MultiSessionService
}

func NewChatHandler(chat *service.ChatService, multi *service.MultiSessionService) *ChatHandler {
	return &ChatHandler{chat: chat, multi: multi}
}

type chatMessageRequest struct {
	DocumentID string `json:"document_id"`
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	Model      string `json:"model"`
}

type multiDocumentRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Message     string   `json:"message"`
	Model       string   `json:"model"`
}

type createSessionRequest struct {
	Title       string   `json:"title"`
	DocumentIDs []string `json:"document_ids"`
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

type sessionMessageRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

func (h *ChatHandler) QueryStatus(c *gin.Context) {
	status, err := h.chat.QueryStatus(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, status)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.chat.SendMessage(c.Request.Context(), getUserID(c), service.SendMessageInput{
		DocumentID: req.DocumentID,
		SessionID:  req.SessionID,
		Message:    req.Message,
		Model:      req.Model,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reply)
}

func (h *ChatHandler) History(c *gin.Context) {
	history, err := h.chat.History(c.Request.Context(), getUserID(c), c.Param("document_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, history)
}

func (h *ChatHandler) MultiDocument(c *gin.Context) {
	var req multiDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.chat.AskDocuments(c.Request.Context(), getUserID(c), req.DocumentIDs, req.Message, req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reply)
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	session, err := h.multi.Create(c.Request.Context(), getUserID(c), req.Title, req.DocumentIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.multi.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sessions)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.multi.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ChatHandler) RenameSession(c *gin.Context) {
	var req renameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	session, err := h.multi.Rename(c.Request.Context(), getUserID(c), c.Param("id"), req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.multi.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *ChatHandler) SessionMessage(c *gin.Context) {
	var req sessionMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.multi.SendMessage(c.Request.Context(), getUserID(c), c.Param("id"), req.Message, req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reply)
}
