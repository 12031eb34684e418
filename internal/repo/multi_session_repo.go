package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

type MultiSessionRepo struct {
	db *sql.DB
}

func NewMultiSessionRepo(db *sql.DB) *MultiSessionRepo {
	return &MultiSessionRepo{db: db}
}

// Create stores the session and its documents; document order is kept in position.
func (r *MultiSessionRepo) Create(ctx context.Context, s *model.MultiDocumentSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	sqlStr, args, err := builder.BuildInsert("multi_document_sessions", []map[string]interface{}{{
		"id":      s.ID,
		"user_id": s.UserID,
		"title":   s.Title,
		"ctime":   s.Ctime,
		"mtime":   s.Mtime,
	}})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	docs := make([]map[string]interface{}, 0, len(s.DocumentIDs))
	for i, docID := range s.DocumentIDs {
		docs = append(docs, map[string]interface{}{
			"session_id":  s.ID,
			"document_id": docID,
			"position":    i,
		})
	}
	if len(docs) > 0 {
		sqlStr, args, err = builder.BuildInsert("multi_session_documents", docs)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return fmt.Errorf("duplicate document in session: %w", appErr.ErrInvalid)
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *MultiSessionRepo) GetByID(ctx context.Context, sessionID string) (*model.MultiDocumentSession, error) {
	sqlStr, args, err := builder.BuildSelect("multi_document_sessions", map[string]interface{}{"id": sessionID},
		[]string{"id", "user_id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var s model.MultiDocumentSession
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&s.ID, &s.UserID, &s.Title, &s.Ctime, &s.Mtime)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	docs, err := r.listDocumentIDs(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.DocumentIDs = docs[s.ID]
	return &s, nil
}

// ListByUser returns the user's sessions, most recently active first, with
// document ids and message counts filled in.
func (r *MultiSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.MultiDocumentSession, error) {
	const query = `
		SELECT s.id, s.user_id, s.title, s.ctime, s.mtime,
			(SELECT COUNT(*) FROM multi_session_messages m WHERE m.session_id = s.id)
		FROM multi_document_sessions s
		WHERE s.user_id = $1
		ORDER BY s.mtime DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var (
		out []model.MultiDocumentSession
		ids []string
	)
	for rows.Next() {
		var s model.MultiDocumentSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Ctime, &s.Mtime, &s.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	docs, err := r.listDocumentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DocumentIDs = docs[out[i].ID]
	}
	return out, nil
}

func (r *MultiSessionRepo) listDocumentIDs(ctx context.Context, sessionIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT session_id, document_id FROM multi_session_documents WHERE session_id IN (?) ORDER BY session_id, position`, sessionIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sessionID, docID string
		if err := rows.Scan(&sessionID, &docID); err != nil {
			return nil, err
		}
		out[sessionID] = append(out[sessionID], docID)
	}
	return out, rows.Err()
}

func (r *MultiSessionRepo) UpdateTitle(ctx context.Context, userID, sessionID, title string, mtime int64) error {
	return r.update(ctx, userID, sessionID, map[string]interface{}{"title": title, "mtime": mtime})
}

func (r *MultiSessionRepo) Touch(ctx context.Context, userID, sessionID string, mtime int64) error {
	return r.update(ctx, userID, sessionID, map[string]interface{}{"mtime": mtime})
}

func (r *MultiSessionRepo) update(ctx context.Context, userID, sessionID string, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("multi_document_sessions",
		map[string]interface{}{"id": sessionID, "user_id": userID}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// Delete removes the session; documents and messages cascade.
func (r *MultiSessionRepo) Delete(ctx context.Context, userID, sessionID string) error {
	sqlStr, args, err := builder.BuildDelete("multi_document_sessions", map[string]interface{}{"id": sessionID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
