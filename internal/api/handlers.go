package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/pkg/httputil"
	"github.com/ignite/list-cleaner/internal/progress"
	"github.com/ignite/list-cleaner/internal/service/upload"
	"github.com/ignite/list-cleaner/internal/validation"
)

// UploadService is the workflow the handlers drive. *upload.Service
// satisfies it.
type UploadService interface {
	Create(ctx context.Context, filename string, body io.Reader) (*domain.Upload, error)
	Process(ctx context.Context, id string, opts validation.Options) (*validation.Result, error)
	Summary(ctx context.Context, id, scope string) (*upload.Summary, error)
	Progress(ctx context.Context, id string) (*progress.Snapshot, error)
	Download(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers contains all HTTP handlers.
type Handlers struct {
	uploads        UploadService
	maxUploadBytes int64
	checks         map[string]HealthCheck
	startTime      time.Time
}

// NewHandlers creates handlers. maxUploadBytes <= 0 disables the limit.
func NewHandlers(uploads UploadService, maxUploadBytes int64, checks map[string]HealthCheck) *Handlers {
	return &Handlers{
		uploads:        uploads,
		maxUploadBytes: maxUploadBytes,
		checks:         checks,
		startTime:      time.Now(),
	}
}

// HealthCheck reports liveness plus the state of each configured dependency.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "unhealthy"
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]any{
		"status":       status,
		"dependencies": deps,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
	})
}

// CreateUpload accepts a multipart form with the list in field "file".
func (h *Handlers) CreateUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httputil.BadRequest(w, "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	u, err := h.uploads.Create(r.Context(), header.Filename, file)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, u)
}

// ProcessUpload runs the pipeline with the stage flags in the JSON body.
func (h *Handlers) ProcessUpload(w http.ResponseWriter, r *http.Request) {
	var opts validation.Options
	if !httputil.Decode(w, r, &opts) {
		return
	}
	res, err := h.uploads.Process(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// GetSummary returns counts and a preview for ?scope=.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.uploads.Summary(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("scope"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, sum)
}

// GetProgress returns live stage progress.
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := h.uploads.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, snap)
}

// DownloadProcessed streams the cleaned list.
func (h *Handlers) DownloadProcessed(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.uploads.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer rc.Close()
	httputil.Attachment(w, name, validation.ContentType, rc)
}
