package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/chatctx"
	"github.com/yirikai/yirikai/internal/model"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
	"github.com/yirikai/yirikai/internal/pkg/timeutil"
	"github.com/yirikai/yirikai/internal/quota"
	"github.com/yirikai/yirikai/internal/repo"
)

const (
	MaxChatDocuments = 10
	maxHistoryLoad   = 20
	defaultChatTitle = "New Chat"
)

type ModelResolver interface {
	ResolveModel(key string) (string, error)
}

type ChatService struct {
	access       *accessChecker
	sessions     *repo.ChatSessionRepo
	messages     *repo.ChatMessageRepo
	orchestrator *chatctx.Orchestrator
	limiter      *quota.Limiter
	models       ModelResolver
}

func NewChatService(docs *repo.DocumentRepo, profiles *repo.UserProfileRepo, sessions *repo.ChatSessionRepo, messages *repo.ChatMessageRepo, orchestrator *chatctx.Orchestrator, limiter *quota.Limiter, models ModelResolver) *ChatService {
	return &ChatService{
		access:       &accessChecker{docs: docs, profiles: profiles},
		sessions:     sessions,
		messages:     messages,
		orchestrator: orchestrator,
		limiter:      limiter,
		models:       models,
	}
}

type SendMessageInput struct {
	DocumentID string
	SessionID  string
	Message    string
	Model      string
}

type ChatReply struct {
	SessionID   string       `json:"session_id,omitempty"`
	Message     string       `json:"message"`
	Sender      string       `json:"sender"`
	ContextMode chatctx.Mode `json:"context_mode"`
	QueryLimit  quota.Status `json:"query_limit"`
}

type DocumentBrief struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MultiDocumentReply struct {
	Message       string          `json:"message"`
	Sender        string          `json:"sender"`
	ContextMode   chatctx.Mode    `json:"context_mode"`
	DocumentCount int             `json:"document_count"`
	Documents     []DocumentBrief `json:"documents"`
	QueryLimit    quota.Status    `json:"query_limit"`
}

type ChatHistory struct {
	SessionID *string             `json:"session_id"`
	Messages  []model.ChatMessage `json:"messages"`
}

func (s *ChatService) QueryStatus(ctx context.Context, userID string) (quota.Status, error) {
	return s.limiter.Status(ctx, userID)
}

// SendMessage answers a question about one document, continuing the given
// session or opening a new one.
func (s *ChatService) SendMessage(ctx context.Context, userID string, in SendMessageInput) (*ChatReply, error) {
	question, modelKey, err := s.prepare(in.Message, in.Model)
	if err != nil {
		return nil, err
	}
	if _, err := s.limiter.Check(ctx, userID); err != nil {
		return nil, err
	}
	session, err := s.resolveSession(ctx, userID, in.SessionID, in.DocumentID)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("session_id", session.ID))

	history, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, &model.ChatMessage{
		ID:        newID(),
		SessionID: session.ID,
		Sender:    model.SenderUser,
		Message:   question,
		Ctime:     timeutil.NowUnix(),
	}); err != nil {
		return nil, err
	}
	turn, err := s.orchestrator.Ask(ai.WithHistory(ctx, toHistory(history)), session.DocumentID, question, modelKey)
	if err != nil {
		logger.Error("chat turn failed", zap.String("document_id", session.DocumentID), zap.Error(err))
		return nil, err
	}
	now := timeutil.NowUnix()
	if err := s.messages.Create(ctx, &model.ChatMessage{
		ID:        newID(),
		SessionID: session.ID,
		Sender:    model.SenderAI,
		Message:   turn.Answer,
		Ctime:     now,
	}); err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		logger.Warn("touch chat session failed", zap.Error(err))
	}
	status, err := s.limiter.Increment(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ChatReply{
		SessionID:   session.ID,
		Message:     turn.Answer,
		Sender:      model.SenderAI,
		ContextMode: turn.Mode,
		QueryLimit:  status,
	}, nil
}

func (s *ChatService) resolveSession(ctx context.Context, userID, sessionID, documentID string) (*model.ChatSession, error) {
	if strings.TrimSpace(sessionID) != "" {
		id, err := parseID(sessionID, "session id")
		if err != nil {
			return nil, err
		}
		session, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if session.UserID != userID {
			return nil, fmt.Errorf("session %s: %w", id, appErr.ErrForbidden)
		}
		if strings.TrimSpace(documentID) != "" {
			docID, err := parseID(documentID, "document id")
			if err != nil {
				return nil, err
			}
			if docID != session.DocumentID {
				return nil, fmt.Errorf("session does not match document: %w", appErr.ErrInvalid)
			}
		}
		return session, nil
	}
	docID, err := parseID(documentID, "document id")
	if err != nil {
		return nil, err
	}
	docs, err := s.access.readableDocuments(ctx, userID, []string{docID})
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(docs[0].Title)
	if title == "" {
		title = defaultChatTitle
	}
	now := timeutil.NowUnix()
	session := &model.ChatSession{
		ID:         newID(),
		UserID:     userID,
		DocumentID: docID,
		Title:      title,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// History returns the user's latest session on the document. A document the
// user never chatted with yields a nil session id and no messages.
func (s *ChatService) History(ctx context.Context, userID, documentID string) (*ChatHistory, error) {
	docID, err := parseID(documentID, "document id")
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.LatestByDocument(ctx, userID, docID)
	if appErr.IsNotFound(err) {
		return &ChatHistory{Messages: []model.ChatMessage{}}, nil
	}
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return &ChatHistory{SessionID: &session.ID, Messages: msgs}, nil
}

// AskDocuments answers one question over up to MaxChatDocuments documents
// without keeping a session.
func (s *ChatService) AskDocuments(ctx context.Context, userID string, documentIDs []string, message, modelKey string) (*MultiDocumentReply, error) {
	question, modelKey, err := s.prepare(message, modelKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.limiter.Check(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := parseDocumentIDs(documentIDs, 1, MaxChatDocuments)
	if err != nil {
		return nil, err
	}
	docs, err := s.access.readableDocuments(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	refs, briefs := documentRefs(docs)
	turn, err := s.orchestrator.AskMulti(ctx, refs, question, modelKey)
	if err != nil {
		logutil.GetLogger(ctx).Error("multi document turn failed",
			zap.String("user_id", userID), zap.Strings("document_ids", ids), zap.Error(err))
		return nil, err
	}
	status, err := s.limiter.Increment(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MultiDocumentReply{
		Message:       turn.Answer,
		Sender:        model.SenderAI,
		ContextMode:   turn.Mode,
		DocumentCount: len(briefs),
		Documents:     briefs,
		QueryLimit:    status,
	}, nil
}

func (s *ChatService) prepare(message, modelKey string) (string, string, error) {
	question := strings.TrimSpace(message)
	if question == "" {
		return "", "", fmt.Errorf("message is required: %w", appErr.ErrInvalid)
	}
	key, err := s.models.ResolveModel(modelKey)
	if err != nil {
		return "", "", err
	}
	return question, key, nil
}

// parseDocumentIDs validates ids and the count bounds. Duplicates are rejected.
func parseDocumentIDs(values []string, min, max int) ([]string, error) {
	if len(values) < min {
		return nil, fmt.Errorf("at least %d documents are required: %w", min, appErr.ErrInvalid)
	}
	if len(values) > max {
		return nil, fmt.Errorf("at most %d documents are allowed: %w", max, appErr.ErrInvalid)
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		id, err := parseID(v, "document id")
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate document %s: %w", id, appErr.ErrInvalid)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func documentRefs(docs []model.Document) ([]chatctx.DocumentRef, []DocumentBrief) {
	refs := make([]chatctx.DocumentRef, 0, len(docs))
	briefs := make([]DocumentBrief, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, chatctx.DocumentRef{ID: d.ID, Title: d.Title})
		briefs = append(briefs, DocumentBrief{ID: d.ID, Title: d.Title})
	}
	return refs, briefs
}

func toHistory(msgs []model.ChatMessage) []ai.Message {
	if len(msgs) > maxHistoryLoad {
		msgs = msgs[len(msgs)-maxHistoryLoad:]
	}
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleUser
		if m.Sender == model.SenderAI {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Content: m.Message})
	}
	return out
}
