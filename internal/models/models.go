package models

import "time"

const (
	DocumentStatusUploaded  = "uploaded"
	DocumentStatusProcessed = "processed"
	DocumentStatusFailed    = "failed"
)

type Document struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"content_type"`
	Status           string    `json:"status,omitempty"`
	FailReason       string    `json:"fail_reason,omitempty"`
	UploadDate       time.Time `json:"upload_date"`
}

type QuestionRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

type QuestionResponse struct {
	Answer string `json:"answer"`
}

type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}

const (
	AskStatusOK            = "ok"
	AskStatusNotFound      = "not_found"
	AskStatusUpstreamError = "upstream_error"
	AskStatusError         = "error"
)

// AskRecord is one answered (or failed) question in the ask log.
type AskRecord struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	QuestionHash string    `json:"question_hash"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
