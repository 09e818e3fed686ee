package storage

import (
	"context"
	"fmt"

	"docqa/internal/models"
	"docqa/internal/util"

	"github.com/jackc/pgx/v5"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, filename, original_filename, size_bytes, content_type, status, fail_reason, uploaded_at)
VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, NULLIF($7,''), $8)
ON CONFLICT (document_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  original_filename = COALESCE(EXCLUDED.original_filename, documents.original_filename),
  size_bytes = EXCLUDED.size_bytes,
  content_type = EXCLUDED.content_type,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.ID, d.Filename, d.OriginalFilename, d.Size, d.ContentType, d.Status, d.FailReason, d.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateDocumentStatus(ctx context.Context, documentID, status, failReason string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW() WHERE document_id=$1`, documentID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", util.ErrDocumentNotFound, documentID)
	}
	return nil
}

const documentColumns = `document_id, filename, COALESCE(original_filename,''), size_bytes, content_type, status, COALESCE(fail_reason,''), uploaded_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.Size, &d.ContentType, &d.Status, &d.FailReason, &d.UploadDate)
	return d, err
}

func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
