package domain

import (
	"encoding/json"
	"time"
)

// UploadStatus is the lifecycle state of an uploaded list.
type UploadStatus string

const (
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusProcessed  UploadStatus = "processed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Upload is one list submitted for cleaning and the outcome of its last run.
type Upload struct {
	ID          string          `json:"id" db:"id"`
	Filename    string          `json:"filename" db:"filename"`
	Status      UploadStatus    `json:"status" db:"status"`
	Metrics     json.RawMessage `json:"metrics,omitempty" db:"metrics"`
	Artifacts   []string        `json:"artifacts" db:"artifacts"`
	Error       string          `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
}

// HasArtifact reports whether name was produced by the last run.
func (u *Upload) HasArtifact(name string) bool {
	for _, a := range u.Artifacts {
		if a == name {
			return true
		}
	}
	return false
}
