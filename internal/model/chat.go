package model

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

type ChatSession struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Ctime     int64  `json:"ctime"`
}

type MultiDocumentSession struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	DocumentIDs  []string `json:"document_ids"`
	MessageCount int      `json:"message_count"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}
