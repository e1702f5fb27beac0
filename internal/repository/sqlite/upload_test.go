package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/service/upload"
)

func setupUploadRepo(t *testing.T) *UploadRepo {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUploadRepo(db)
}

func TestUploadRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupUploadRepo(t)

	u := &domain.Upload{Filename: "list.txt"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusUploaded, got.Status)
	assert.Empty(t, got.Artifacts)
	assert.Nil(t, got.ProcessedAt)
	assert.True(t, got.CreatedAt.Equal(u.CreatedAt))

	require.NoError(t, repo.MarkProcessing(ctx, u.ID))
	got, err = repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusProcessing, got.Status)

	metrics := json.RawMessage(`{"total_in":3,"total_out":2}`)
	artifacts := []string{"duplicates_list.txt", "processed_list.txt"}
	require.NoError(t, repo.SaveResult(ctx, u.ID, metrics, artifacts))

	got, err = repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusProcessed, got.Status)
	assert.JSONEq(t, string(metrics), string(got.Metrics))
	if diff := cmp.Diff(artifacts, got.Artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, got.ProcessedAt)
}

func TestUploadRepo_SaveFailure(t *testing.T) {
	ctx := context.Background()
	repo := setupUploadRepo(t)
	u := &domain.Upload{Filename: "list.txt"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.SaveFailure(ctx, u.ID, nil, "dedup: disk full"))
	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusFailed, got.Status)
	assert.Equal(t, "dedup: disk full", got.Error)
	assert.Nil(t, got.Metrics)
}

func TestUploadRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := setupUploadRepo(t)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, upload.ErrNotFound)
	assert.ErrorIs(t, repo.MarkProcessing(ctx, "missing"), upload.ErrNotFound)
}
