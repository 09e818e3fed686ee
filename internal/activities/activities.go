package activities

import (
	"context"
	"fmt"

	"docqa/internal/documents"
	"docqa/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

const NoTextErrorType = "NoExtractableText"

// StatusUpdater records ingest progress. storage.DocumentRepo implements it.
type StatusUpdater interface {
	UpdateDocumentStatus(ctx context.Context, documentID, status, failReason string) error
}

type Activities struct {
	store   *documents.Store
	catalog StatusUpdater
	log     *zap.Logger
}

// New wires the ingest activities. catalog may be nil when no database is
// configured; status updates are then only logged.
func New(store *documents.Store, catalog StatusUpdater, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activities{store: store, catalog: catalog, log: log}
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	path := in.Path
	if path == "" {
		p, err := a.store.Path(ctx, in.DocumentID)
		if err != nil {
			return ExtractTextOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), "DocumentNotFound", err)
		}
		path = p
	}
	text, err := documents.ExtractText(path)
	if err != nil {
		return ExtractTextOutput{}, err
	}
	if text == "" {
		return ExtractTextOutput{}, temporal.NewNonRetryableApplicationError(util.ErrNoExtractableText.Error(), NoTextErrorType, util.ErrNoExtractableText)
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) WriteExtractedTextActivity(ctx context.Context, in WriteExtractedTextInput) (WriteExtractedTextOutput, error) {
	_ = ctx
	path := a.store.SidecarPath(in.DocumentID)
	if err := util.WriteTextAtomic(path, in.Text); err != nil {
		return WriteExtractedTextOutput{}, fmt.Errorf("write extracted text: %w", err)
	}
	return WriteExtractedTextOutput{Path: path}, nil
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	a.log.Info("document status",
		zap.String("document_id", in.DocumentID),
		zap.String("status", in.Status),
		zap.String("fail_reason", in.FailReason),
	)
	if a.catalog == nil {
		return nil
	}
	return a.catalog.UpdateDocumentStatus(ctx, in.DocumentID, in.Status, in.FailReason)
}

// ListPendingDocumentsActivity returns stored documents without extracted
// text.
func (a *Activities) ListPendingDocumentsActivity(ctx context.Context, in ListPendingDocumentsInput) (ListPendingDocumentsOutput, error) {
	docs, err := a.store.List(ctx)
	if err != nil {
		return ListPendingDocumentsOutput{}, err
	}
	out := make([]PendingDocument, 0)
	for _, d := range docs {
		if in.Limit > 0 && len(out) >= in.Limit {
			break
		}
		if util.RegularFileExists(a.store.SidecarPath(d.ID)) {
			continue
		}
		p, err := a.store.Path(ctx, d.ID)
		if err != nil {
			continue
		}
		out = append(out, PendingDocument{DocumentID: d.ID, Path: p})
	}
	return ListPendingDocumentsOutput{Documents: out}, nil
}
