package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/service/upload"
)

// UploadRepo implements upload.Repository against PostgreSQL.
type UploadRepo struct{ db *sql.DB }

// NewUploadRepo creates a Postgres-backed upload repository.
func NewUploadRepo(db *sql.DB) *UploadRepo { return &UploadRepo{db: db} }

func (r *UploadRepo) Create(ctx context.Context, u *domain.Upload) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Status == "" {
		u.Status = domain.UploadStatusUploaded
	}
	if u.Artifacts == nil {
		u.Artifacts = []string{}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO validation_uploads (id, filename, status, artifacts, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, u.ID, u.Filename, string(u.Status), pq.Array(u.Artifacts)).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *UploadRepo) Get(ctx context.Context, id string) (*domain.Upload, error) {
	var (
		u           domain.Upload
		status      string
		metrics     []byte
		errMsg      sql.NullString
		processedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, status, metrics, artifacts, error, created_at, processed_at
		FROM validation_uploads
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Filename, &status, &metrics, pq.Array(&u.Artifacts), &errMsg, &u.CreatedAt, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, upload.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	u.Status = domain.UploadStatus(status)
	if len(metrics) > 0 {
		u.Metrics = json.RawMessage(metrics)
	}
	u.Error = errMsg.String
	if processedAt.Valid {
		t := processedAt.Time
		u.ProcessedAt = &t
	}
	if u.Artifacts == nil {
		u.Artifacts = []string{}
	}
	return &u, nil
}

func (r *UploadRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.update(ctx, "mark processing", `
		UPDATE validation_uploads SET status = $2, error = NULL WHERE id = $1
	`, id, string(domain.UploadStatusProcessing))
}

func (r *UploadRepo) SaveResult(ctx context.Context, id string, metrics json.RawMessage, artifacts []string) error {
	return r.update(ctx, "save result", `
		UPDATE validation_uploads
		SET status = $2, metrics = $3, artifacts = $4, error = NULL, processed_at = NOW()
		WHERE id = $1
	`, id, string(domain.UploadStatusProcessed), nullJSON(metrics), pq.Array(artifacts))
}

func (r *UploadRepo) SaveFailure(ctx context.Context, id string, metrics json.RawMessage, message string) error {
	return r.update(ctx, "save failure", `
		UPDATE validation_uploads
		SET status = $2, metrics = $3, error = $4, processed_at = NOW()
		WHERE id = $1
	`, id, string(domain.UploadStatusFailed), nullJSON(metrics), message)
}

func (r *UploadRepo) update(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return upload.ErrNotFound
	}
	return nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
