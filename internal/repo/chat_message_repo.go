package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
)

// ChatMessageRepo stores the messages of one kind of session. Single and
// multi-document sessions keep their messages in separate tables.
type ChatMessageRepo struct {
	db    *sql.DB
	table string
}

func NewChatMessageRepo(db *sql.DB) *ChatMessageRepo {
	return &ChatMessageRepo{db: db, table: "chat_messages"}
}

func NewMultiSessionMessageRepo(db *sql.DB) *ChatMessageRepo {
	return &ChatMessageRepo{db: db, table: "multi_session_messages"}
}

func (r *ChatMessageRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	sqlStr, args, err := builder.BuildInsert(r.table, []map[string]interface{}{{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"sender":     msg.Sender,
		"message":    msg.Message,
		"ctime":      msg.Ctime,
	}})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListBySession returns messages oldest first.
func (r *ChatMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
		"_orderby":   "seq asc",
	}
	sqlStr, args, err := builder.BuildSelect(r.table, where, []string{"id", "session_id", "sender", "message", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Message, &m.Ctime); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
