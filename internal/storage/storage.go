// Package storage persists uploaded lists and the artifacts the cleaning
// pipeline produces. Backends are selected by config: "local" keeps files
// under a directory, "s3" (or "aws") keeps them as objects in a bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ignite/list-cleaner/internal/config"
)

var (
	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidName is returned for names that would escape the store root.
	ErrInvalidName = errors.New("invalid artifact name")
)

// Store reads and writes named, immutable text artifacts.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Put(ctx context.Context, name string, r io.Reader, contentType string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		return NewLocalStore(cfg.LocalPath)
	case "s3", "aws":
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// Prefixed scopes every name under prefix, e.g. one upload's directory.
func Prefixed(s Store, prefix string) Store {
	return &prefixed{store: s, prefix: strings.Trim(prefix, "/")}
}

type prefixed struct {
	store  Store
	prefix string
}

func (p *prefixed) key(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

func (p *prefixed) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return p.store.Open(ctx, p.key(name))
}

func (p *prefixed) Put(ctx context.Context, name string, r io.Reader, contentType string) error {
	return p.store.Put(ctx, p.key(name), r, contentType)
}

func (p *prefixed) Exists(ctx context.Context, name string) (bool, error) {
	return p.store.Exists(ctx, p.key(name))
}

// cleanName normalizes a slash-separated artifact name and rejects anything
// absolute or climbing out of the root.
func cleanName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidName
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", ErrInvalidName
		}
	}
	return cleaned, nil
}
