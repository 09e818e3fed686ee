package activities

type ExtractTextInput struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type WriteExtractedTextInput struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type WriteExtractedTextOutput struct {
	Path string `json:"path"`
}

type UpdateDocumentStatusInput struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}

type ListPendingDocumentsInput struct {
	Limit int `json:"limit,omitempty"`
}

type PendingDocument struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
}

type ListPendingDocumentsOutput struct {
	Documents []PendingDocument `json:"documents"`
}
