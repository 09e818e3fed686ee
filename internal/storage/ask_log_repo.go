package storage

import (
	"context"
	"fmt"

	"docqa/internal/models"
)

type AskLogRepo struct {
	db *DB
}

func NewAskLogRepo(db *DB) *AskLogRepo {
	return &AskLogRepo{db: db}
}

func (r *AskLogRepo) Insert(ctx context.Context, rec models.AskRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO ask_log(ask_id, document_id, question_hash, status, error, duration_ms)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, NULLIF($5,''), $6)`,
		rec.ID, rec.DocumentID, rec.QuestionHash, rec.Status, rec.Error, rec.DurationMS)
	if err != nil {
		return fmt.Errorf("insert ask record: %w", err)
	}
	return nil
}

func (r *AskLogRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]models.AskRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT ask_id::text, document_id, question_hash, status, COALESCE(error,''), duration_ms, created_at
FROM ask_log
WHERE document_id=$1
ORDER BY created_at DESC
LIMIT $2`, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ask records: %w", err)
	}
	defer rows.Close()

	out := make([]models.AskRecord, 0)
	for rows.Next() {
		var rec models.AskRecord
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.QuestionHash, &rec.Status, &rec.Error, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ask record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ask records: %w", err)
	}
	return out, nil
}
