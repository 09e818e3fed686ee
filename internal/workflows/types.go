package workflows

type DocumentIngestInput struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
}

type IngestStatus struct {
	DocumentID  string            `json:"document_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}

type BackfillInput struct {
	Limit                 int `json:"limit,omitempty"`
	MaxConcurrentChildren int `json:"max_concurrent_children"`
}

type BackfillProgress struct {
	Total       int               `json:"total"`
	Done        int               `json:"done"`
	Failed      int               `json:"failed"`
	PerDocument map[string]string `json:"per_document"`
}
