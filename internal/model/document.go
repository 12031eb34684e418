package model

const (
	DocumentVisibilityPrivate = "private"
	DocumentVisibilityPublic  = "public"
)

// Document is the metadata of an uploaded PDF. Ingestion owns the row.
type Document struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
	IsApproved bool   `json:"is_approved"`
}

type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	PageNumber int       `json:"page_number"`
	Content    *string   `json:"content"`
	Embedding  []float32 `json:"-"`
}
