package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/pkg/distlock"
	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/preview"
	"github.com/ignite/list-cleaner/internal/progress"
	"github.com/ignite/list-cleaner/internal/storage"
	"github.com/ignite/list-cleaner/internal/validation"
	"github.com/ignite/list-cleaner/internal/validation/rules"
)

// Config tunes the service.
type Config struct {
	Pipeline     validation.Config
	Rules        *rules.Loader // when set, every run picks up the current rule set
	PreviewLimit int
}

// Service implements the upload workflow. It is safe for concurrent use.
type Service struct {
	repo     Repository
	store    storage.Store
	locker   *distlock.Locker
	progress *progress.Tracker
	cfg      Config
}

// NewService wires a service. locker may be nil, in which case runs are not
// serialized across processes. tracker may be nil.
func NewService(repo Repository, store storage.Store, locker *distlock.Locker, tracker *progress.Tracker, cfg Config) *Service {
	if tracker == nil {
		tracker = progress.NewTracker(nil, 0)
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = preview.DefaultLimit
	}
	return &Service{repo: repo, store: store, locker: locker, progress: tracker, cfg: cfg}
}

// Create stores body as the original list of a new upload.
func (s *Service) Create(ctx context.Context, filename string, body io.Reader) (*domain.Upload, error) {
	name := cleanFilename(filename)
	if name == "" {
		return nil, ErrEmptyName
	}
	u := &domain.Upload{
		ID:        uuid.New().String(),
		Filename:  name,
		Status:    domain.UploadStatusUploaded,
		Artifacts: []string{},
	}
	if err := s.store.Put(ctx, u.ID+"/"+name, body, validation.ContentType); err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("upload stored", "upload_id", u.ID, "filename", name)
	return u, nil
}

// Get returns the upload record.
func (s *Service) Get(ctx context.Context, id string) (*domain.Upload, error) {
	return s.repo.Get(ctx, id)
}

// Progress returns the live progress of the upload's current or last run.
func (s *Service) Progress(ctx context.Context, id string) (*progress.Snapshot, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.progress.Get(ctx, id)
}

// Process cleans the upload's original list with the selected stages. Only
// one run per upload may be in flight; a concurrent call gets ErrBusy.
func (s *Service) Process(ctx context.Context, id string, opts validation.Options) (*validation.Result, error) {
	if !opts.Any() {
		return nil, validation.ErrNoStages
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		lock := s.locker.For("upload:" + id)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire processing lock: %w", err)
		}
		if !ok {
			return nil, ErrBusy
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("processing lock release failed", "upload_id", id, "error", err)
			}
		}()
		stop := s.heartbeat(ctx, id, lock)
		defer stop()
	}

	if err := s.repo.MarkProcessing(ctx, id); err != nil {
		return nil, err
	}

	run := s.progress.Start(ctx, id)
	res, runErr := validation.New(s.pipelineConfig()).Run(ctx, storage.Prefixed(s.store, id), u.Filename, opts, run)

	var metrics json.RawMessage
	if res != nil && res.Metrics != nil {
		if metrics, err = json.Marshal(res.Metrics); err != nil {
			metrics = nil
		}
	}

	saveCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		run.Finish(saveCtx, runErr)
		if err := s.repo.SaveFailure(saveCtx, id, metrics, runErr.Error()); err != nil {
			logger.Error("saving failed run", "upload_id", id, "error", err)
		}
		return res, runErr
	}

	names := make([]string, 0, len(res.Artifacts))
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
	}
	if err := s.repo.SaveResult(saveCtx, id, metrics, names); err != nil {
		run.Finish(saveCtx, err)
		return res, err
	}
	run.Finish(saveCtx, nil)
	return res, nil
}

func (s *Service) pipelineConfig() validation.Config {
	cfg := s.cfg.Pipeline
	if s.cfg.Rules != nil {
		cfg.Rules = s.cfg.Rules.Get()
	}
	return cfg
}

// heartbeat keeps an expiring lock alive while a run is in progress. The
// returned func stops it.
func (s *Service) heartbeat(ctx context.Context, id string, lock distlock.DistLock) func() {
	ext, ok := lock.(distlock.Extender)
	ttl := s.locker.TTL()
	interval := ttl / 3
	if !ok || interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ext.Extend(ctx, ttl); err != nil {
					logger.Warn("processing lock extend failed", "upload_id", id, "error", err)
					if errors.Is(err, distlock.ErrNotHeld) {
						return
					}
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Download opens the processed list of the last successful run.
func (s *Service) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	name := validation.ArtifactName(validation.ArtifactProcessed, u.Filename)
	if !u.HasArtifact(name) {
		return nil, "", ErrNotProcessed
	}
	rc, err := storage.Prefixed(s.store, id).Open(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrNotProcessed
	}
	if err != nil {
		return nil, "", err
	}
	return rc, name, nil
}

// cleanFilename keeps the base name of a client supplied path.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}
