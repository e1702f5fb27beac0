package upload

import (
	"context"
	"encoding/json"

	"github.com/ignite/list-cleaner/internal/domain"
)

// Repository defines the data access contract for upload records.
type Repository interface {
	// Create inserts a new record, assigning an ID when empty.
	Create(ctx context.Context, u *domain.Upload) error

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Upload, error)

	// MarkProcessing flags the record as being cleaned.
	MarkProcessing(ctx context.Context, id string) error

	// SaveResult stores a successful run.
	SaveResult(ctx context.Context, id string, metrics json.RawMessage, artifacts []string) error

	// SaveFailure stores a failed run with whatever metrics it produced.
	SaveFailure(ctx context.Context, id string, metrics json.RawMessage, message string) error
}
