// Package progress publishes live per-stage progress of a cleaning run to
// Redis so any server instance can answer progress polls.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/validation"
)

// Status values of a run.
const (
	StatusUnknown    = "unknown"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// DefaultTTL keeps finished progress around for a day.
const DefaultTTL = 24 * time.Hour

// StageProgress is one finished stage.
type StageProgress struct {
	Name    string `json:"name"`
	In      int64  `json:"in"`
	Kept    int64  `json:"kept"`
	Removed int64  `json:"removed"`
}

// Snapshot is the stored progress document.
type Snapshot struct {
	UploadID     string          `json:"upload_id"`
	Status       string          `json:"status"`
	CurrentStage string          `json:"current_stage,omitempty"`
	Stages       []StageProgress `json:"stages"`
	Error        string          `json:"error,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Tracker reads and writes snapshots.
type Tracker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewTracker returns a Tracker. A nil client yields a Tracker whose writes
// are dropped and whose reads report StatusUnknown.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{redis: client, ttl: ttl}
}

func key(uploadID string) string {
	return fmt.Sprintf("upload:progress:%s", uploadID)
}

// Get returns the latest snapshot, or a StatusUnknown one.
func (t *Tracker) Get(ctx context.Context, uploadID string) (*Snapshot, error) {
	unknown := &Snapshot{UploadID: uploadID, Status: StatusUnknown, Stages: []StageProgress{}}
	if t.redis == nil {
		return unknown, nil
	}
	data, err := t.redis.Get(ctx, key(uploadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return unknown, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &snap, nil
}

func (t *Tracker) save(ctx context.Context, snap *Snapshot) {
	if t.redis == nil {
		return
	}
	snap.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := t.redis.Set(ctx, key(snap.UploadID), data, t.ttl).Err(); err != nil {
		logger.Warn("progress update failed", "upload_id", snap.UploadID, "error", err)
	}
}

// Start begins a run and returns the observer the pipeline reports to.
func (t *Tracker) Start(ctx context.Context, uploadID string) *Run {
	r := &Run{tracker: t, snap: Snapshot{UploadID: uploadID, Status: StatusProcessing, Stages: []StageProgress{}}}
	t.save(ctx, &r.snap)
	return r
}

// Run is the progress of one pipeline invocation. It implements
// validation.Observer.
type Run struct {
	tracker *Tracker
	mu      sync.Mutex
	snap    Snapshot
}

var _ validation.Observer = (*Run)(nil)

func (r *Run) StageStarted(ctx context.Context, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.CurrentStage = stage
	r.tracker.save(ctx, &r.snap)
}

func (r *Run) StageFinished(ctx context.Context, stage string, res validation.StageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Stages = append(r.snap.Stages, StageProgress{Name: stage, In: res.In, Kept: res.Kept, Removed: res.Removed})
	r.snap.CurrentStage = ""
	r.tracker.save(ctx, &r.snap)
}

// Finish records the outcome. err nil means success.
func (r *Run) Finish(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.CurrentStage = ""
	if err != nil {
		r.snap.Status = StatusFailed
		r.snap.Error = err.Error()
	} else {
		r.snap.Status = StatusProcessed
	}
	r.tracker.save(ctx, &r.snap)
}

// Nop is an observer that records nothing, for runs without a tracker.
var Nop validation.Observer = nop{}

type nop struct{}

func (nop) StageStarted(context.Context, string) {}
func (nop) StageFinished(context.Context, string, validation.StageResult) {}
