package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

var documentFields = []string{"id", "user_id", "title", "status", "visibility", "is_approved"}

// DocumentRepo reads document metadata written by the upload pipeline.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"title":       doc.Title,
		"status":      doc.Status,
		"visibility":  doc.Visibility,
		"is_approved": doc.IsApproved,
	}
	if doc.UserID != "" {
		data["user_id"] = doc.UserID
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", map[string]interface{}{"id": docID}, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	doc, err := scanDocument(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByIDs returns the documents found, in the order of docIDs.
func (r *DocumentRepo) ListByIDs(ctx context.Context, docIDs []string) ([]model.Document, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, title, status, visibility, is_approved FROM documents WHERE id IN (?)`, docIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[string]model.Document, len(docIDs))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = *doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(byID))
	for _, id := range docIDs {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		doc    model.Document
		userID sql.NullString
	)
	if err := row.Scan(&doc.ID, &userID, &doc.Title, &doc.Status, &doc.Visibility, &doc.IsApproved); err != nil {
		return nil, err
	}
	doc.UserID = userID.String
	return &doc, nil
}
