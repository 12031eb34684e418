package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

var chatSessionFields = []string{"id", "user_id", "document_id", "title", "ctime", "mtime"}

type ChatSessionRepo struct {
	db *sql.DB
}

func NewChatSessionRepo(db *sql.DB) *ChatSessionRepo {
	return &ChatSessionRepo{db: db}
}

func (r *ChatSessionRepo) Create(ctx context.Context, s *model.ChatSession) error {
	sqlStr, args, err := builder.BuildInsert("chat_sessions", []map[string]interface{}{{
		"id":          s.ID,
		"user_id":     s.UserID,
		"document_id": s.DocumentID,
		"title":       s.Title,
		"ctime":       s.Ctime,
		"mtime":       s.Mtime,
	}})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatSessionRepo) GetByID(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	return r.getOne(ctx, map[string]interface{}{"id": sessionID})
}

// LatestByDocument returns the most recently active session of the user on docID.
func (r *ChatSessionRepo) LatestByDocument(ctx context.Context, userID, docID string) (*model.ChatSession, error) {
	return r.getOne(ctx, map[string]interface{}{
		"user_id":     userID,
		"document_id": docID,
		"_orderby":    "mtime desc",
		"_limit":      []uint{0, 1},
	})
}

func (r *ChatSessionRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.ChatSession, error) {
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, chatSessionFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var s model.ChatSession
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&s.ID, &s.UserID, &s.DocumentID, &s.Title, &s.Ctime, &s.Mtime)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ChatSessionRepo) Touch(ctx context.Context, sessionID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("chat_sessions", map[string]interface{}{"id": sessionID}, map[string]interface{}{"mtime": mtime})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
