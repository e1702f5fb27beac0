// Package sqlite is a single-node upload repository for local runs and
// development, backed by the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/service/upload"
)

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS validation_uploads (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'uploaded',
	metrics      TEXT,
	artifacts    TEXT NOT NULL DEFAULT '[]',
	error        TEXT,
	created_at   TEXT NOT NULL,
	processed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_validation_uploads_status ON validation_uploads (status);
`

// Open opens (creating if needed) the database file at path and ensures the
// schema. ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; also keeps ":memory:" to a single database.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// UploadRepo implements upload.Repository against SQLite.
type UploadRepo struct{ db *sql.DB }

// NewUploadRepo creates a SQLite-backed upload repository.
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
	artifacts, err := json.Marshal(u.Artifacts)
	if err != nil {
		return err
	}
	u.CreatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO validation_uploads (id, filename, status, artifacts, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Filename, string(u.Status), string(artifacts), u.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *UploadRepo) Get(ctx context.Context, id string) (*domain.Upload, error) {
	var (
		u           domain.Upload
		status      string
		metrics     sql.NullString
		artifacts   string
		errMsg      sql.NullString
		createdAt   string
		processedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, status, metrics, artifacts, error, created_at, processed_at
		FROM validation_uploads
		WHERE id = ?
	`, id).Scan(&u.ID, &u.Filename, &status, &metrics, &artifacts, &errMsg, &createdAt, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, upload.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	u.Status = domain.UploadStatus(status)
	if metrics.Valid && metrics.String != "" {
		u.Metrics = json.RawMessage(metrics.String)
	}
	if err := json.Unmarshal([]byte(artifacts), &u.Artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	if u.Artifacts == nil {
		u.Artifacts = []string{}
	}
	u.Error = errMsg.String
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if processedAt.Valid {
		t, err := time.Parse(timeLayout, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode processed_at: %w", err)
		}
		u.ProcessedAt = &t
	}
	return &u, nil
}

func (r *UploadRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.update(ctx, "mark processing", `
		UPDATE validation_uploads SET status = ?, error = NULL WHERE id = ?
	`, string(domain.UploadStatusProcessing), id)
}

func (r *UploadRepo) SaveResult(ctx context.Context, id string, metrics json.RawMessage, artifacts []string) error {
	if artifacts == nil {
		artifacts = []string{}
	}
	list, err := json.Marshal(artifacts)
	if err != nil {
		return err
	}
	return r.update(ctx, "save result", `
		UPDATE validation_uploads
		SET status = ?, metrics = ?, artifacts = ?, error = NULL, processed_at = ?
		WHERE id = ?
	`, string(domain.UploadStatusProcessed), nullString(metrics), string(list), now(), id)
}

func (r *UploadRepo) SaveFailure(ctx context.Context, id string, metrics json.RawMessage, message string) error {
	return r.update(ctx, "save failure", `
		UPDATE validation_uploads
		SET status = ?, metrics = ?, error = ?, processed_at = ?
		WHERE id = ?
	`, string(domain.UploadStatusFailed), nullString(metrics), message, now(), id)
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

func now() string { return time.Now().UTC().Format(timeLayout) }

func nullString(raw json.RawMessage) sql.NullString {
	return sql.NullString{String: string(raw), Valid: len(raw) > 0}
}
