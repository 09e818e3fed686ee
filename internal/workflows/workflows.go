package workflows

import (
	"errors"
	"strings"
	"time"

	"docqa/internal/activities"
	"docqa/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetIngestStatus = "GetIngestStatus"
	QueryGetProgress     = "GetProgress"
)

// IngestWorkflowID is the workflow id used for a document's ingest run.
func IngestWorkflowID(documentID string) string {
	return "ingest-" + sanitizeID(documentID)
}

// DocumentIngestWorkflow extracts the text of an uploaded document once and
// stores it next to the file, so answering does not repeat PDF extraction.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (string, error) {
	status := IngestStatus{
		DocumentID:  input.DocumentID,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestStatus, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	fail := func(reason string) (string, error) {
		status.Status = models.DocumentStatusFailed
		status.FailReason = reason
		status.Steps[status.CurrentStep] = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocumentID: input.DocumentID,
			Status:     models.DocumentStatusFailed,
			FailReason: reason,
		}).Get(ctx, nil)
		return status.Status, nil
	}

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{DocumentID: input.DocumentID, Path: input.Path}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			return fail("no extractable text found (OCR not enabled)")
		}
		if isNotFoundError(err) {
			return fail("document file missing")
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_text"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "WriteExtractedTextActivity", activities.WriteExtractedTextInput{DocumentID: input.DocumentID, Text: textOut.Text}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "mark_processed"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{DocumentID: input.DocumentID, Status: models.DocumentStatusProcessed}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = models.DocumentStatusProcessed
	return status.Status, nil
}

// BackfillWorkflow ingests every stored document that has no extracted text
// yet, a few child workflows at a time.
func BackfillWorkflow(ctx workflow.Context, input BackfillInput) (string, error) {
	progress := BackfillProgress{PerDocument: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (BackfillProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	var listOut activities.ListPendingDocumentsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPendingDocumentsActivity", activities.ListPendingDocumentsInput{Limit: input.Limit}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	docs := listOut.Documents
	progress.Total = len(docs)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(docs); i += maxChildren {
		end := i + maxChildren
		if end > len(docs) {
			end = len(docs)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		for _, d := range docs[i:end] {
			progress.PerDocument[d.DocumentID] = "processing"
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: IngestWorkflowID(d.DocumentID)})
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, DocumentIngestWorkflow, DocumentIngestInput{
				DocumentID: d.DocumentID,
				Path:       d.Path,
			}))
		}

		for idx, f := range futures {
			id := docs[i+idx].DocumentID
			var childStatus string
			if err := f.Get(ctx, &childStatus); err != nil {
				progress.Failed++
				progress.PerDocument[id] = models.DocumentStatusFailed
				continue
			}
			if childStatus == models.DocumentStatusFailed {
				progress.Failed++
			}
			progress.Done++
			progress.PerDocument[id] = childStatus
		}
	}
	return "completed", nil
}

func isNoTextError(err error) bool {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == activities.NoTextErrorType {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isNotFoundError(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == "DocumentNotFound"
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
