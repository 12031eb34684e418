package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/model"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
	"github.com/yirikai/yirikai/internal/pkg/timeutil"
	"github.com/yirikai/yirikai/internal/repo"
)

const (
	MinSessionDocuments = 2
	maxSessionTitle     = 255
)

// MultiSessionService manages persistent chats over a fixed set of documents.
type MultiSessionService struct {
	chat     *ChatService
	sessions *repo.MultiSessionRepo
	messages *repo.ChatMessageRepo
}

func NewMultiSessionService(chat *ChatService, sessions *repo.MultiSessionRepo, messages *repo.ChatMessageRepo) *MultiSessionService {
	return &MultiSessionService{chat: chat, sessions: sessions, messages: messages}
}

type MultiSessionView struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	DocumentCount int                 `json:"document_count"`
	Documents     []DocumentBrief     `json:"documents"`
	MessageCount  int                 `json:"message_count"`
	Messages      []model.ChatMessage `json:"messages,omitempty"`
	Ctime         int64               `json:"ctime"`
	Mtime         int64               `json:"mtime"`
}

func (s *MultiSessionService) Create(ctx context.Context, userID, title string, documentIDs []string) (*MultiSessionView, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	ids, err := parseDocumentIDs(documentIDs, MinSessionDocuments, MaxChatDocuments)
	if err != nil {
		return nil, err
	}
	docs, err := s.chat.access.readableDocuments(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	session := &model.MultiDocumentSession{
		ID:          newID(),
		UserID:      userID,
		Title:       title,
		DocumentIDs: ids,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	_, briefs := documentRefs(docs)
	return toSessionView(session, briefs), nil
}

func (s *MultiSessionService) List(ctx context.Context, userID string) ([]MultiSessionView, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var all []string
	for _, ss := range sessions {
		all = append(all, ss.DocumentIDs...)
	}
	titles, err := s.documentTitles(ctx, all)
	if err != nil {
		return nil, err
	}
	out := make([]MultiSessionView, 0, len(sessions))
	for i := range sessions {
		out = append(out, *toSessionView(&sessions[i], briefsFor(sessions[i].DocumentIDs, titles)))
	}
	return out, nil
}

func (s *MultiSessionService) Get(ctx context.Context, userID, sessionID string) (*MultiSessionView, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	titles, err := s.documentTitles(ctx, session.DocumentIDs)
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
	view := toSessionView(session, briefsFor(session.DocumentIDs, titles))
	view.Messages = msgs
	view.MessageCount = len(msgs)
	return view, nil
}

func (s *MultiSessionService) Rename(ctx context.Context, userID, sessionID, title string) (*MultiSessionView, error) {
	id, err := parseID(sessionID, "session id")
	if err != nil {
		return nil, err
	}
	title, err = validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateTitle(ctx, userID, id, title, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return &MultiSessionView{ID: id, Title: title}, nil
}

func (s *MultiSessionService) Delete(ctx context.Context, userID, sessionID string) error {
	id, err := parseID(sessionID, "session id")
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, userID, id)
}

// SendMessage answers over the session's documents in their stored order and
// records both sides of the exchange.
func (s *MultiSessionService) SendMessage(ctx context.Context, userID, sessionID, message, modelKey string) (*ChatReply, error) {
	question, modelKey, err := s.chat.prepare(message, modelKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.chat.limiter.Check(ctx, userID); err != nil {
		return nil, err
	}
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("session_id", session.ID))
	docs, err := s.chat.access.docs.ListByIDs(ctx, session.DocumentIDs)
	if err != nil {
		return nil, err
	}
	refs, _ := documentRefs(docs)
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
	turn, err := s.chat.orchestrator.AskMulti(ai.WithHistory(ctx, toHistory(history)), refs, question, modelKey)
	if err != nil {
		logger.Error("multi session turn failed", zap.Error(err))
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
	if err := s.sessions.Touch(ctx, userID, session.ID, now); err != nil {
		logger.Warn("touch multi session failed", zap.Error(err))
	}
	status, err := s.chat.limiter.Increment(ctx, userID)
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

// owned returns the session when it belongs to userID. Other users' sessions
// are reported as missing.
func (s *MultiSessionService) owned(ctx context.Context, userID, sessionID string) (*model.MultiDocumentSession, error) {
	id, err := parseID(sessionID, "session id")
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, appErr.ErrNotFound)
	}
	return session, nil
}

func (s *MultiSessionService) documentTitles(ctx context.Context, ids []string) (map[string]string, error) {
	docs, err := s.chat.access.docs.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.ID] = d.Title
	}
	return out, nil
}

func briefsFor(ids []string, titles map[string]string) []DocumentBrief {
	out := make([]DocumentBrief, 0, len(ids))
	for _, id := range ids {
		title, ok := titles[id]
		if !ok {
			continue
		}
		out = append(out, DocumentBrief{ID: id, Title: title})
	}
	return out
}

func toSessionView(s *model.MultiDocumentSession, docs []DocumentBrief) *MultiSessionView {
	return &MultiSessionView{
		ID:            s.ID,
		Title:         s.Title,
		DocumentCount: len(docs),
		Documents:     docs,
		MessageCount:  s.MessageCount,
		Ctime:         s.Ctime,
		Mtime:         s.Mtime,
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required: %w", appErr.ErrInvalid)
	}
	if utf8.RuneCountInString(title) > maxSessionTitle {
		return "", fmt.Errorf("title longer than %d characters: %w", maxSessionTitle, appErr.ErrInvalid)
	}
	return title, nil
}

