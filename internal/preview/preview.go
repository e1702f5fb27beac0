// Package preview summarizes stored artifacts for display: streamed line
// counts, the first N lines, and a de-duplicated union across several
// reports.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/list-cleaner/internal/extsort"
)

// DefaultLimit is the preview size used when none is configured.
const DefaultLimit = 100

// Opener opens a named artifact. storage.Store satisfies it.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Preview is a bounded sample plus the full count it was taken from.
type Preview struct {
	Lines []string `json:"lines"`
	Total int64    `json:"total"`
}

// CountLines counts every line in r, including blank ones.
func CountLines(r io.Reader) (int64, error) {
	var n int64
	sc := extsort.NewScanner(r)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

// Head returns up to limit lines from r and the total line count.
func Head(r io.Reader, limit int) (Preview, error) {
	if limit < 0 {
		limit = 0
	}
	p := Preview{Lines: make([]string, 0, min(limit, 1024))}
	sc := extsort.NewScanner(r)
	for sc.Scan() {
		if len(p.Lines) < limit {
			p.Lines = append(p.Lines, sc.Text())
		}
		p.Total++
	}
	return p, sc.Err()
}

// DistinctUnion merges several artifacts, skipping blank lines and counting
// each distinct value once. Lines keeps first-seen order. Missing artifacts
// are treated as empty.
func DistinctUnion(ctx context.Context, o Opener, names []string, limit int, isMissing func(error) bool) (Preview, error) {
	seen := make(map[string]struct{})
	p := Preview{Lines: []string{}}
	for _, name := range names {
		rc, err := o.Open(ctx, name)
		if err != nil {
			if isMissing != nil && isMissing(err) {
				continue
			}
			return p, fmt.Errorf("open %s: %w", name, err)
		}
		sc := extsort.NewScanner(rc)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			if len(p.Lines) < limit {
				p.Lines = append(p.Lines, line)
			}
		}
		err = sc.Err()
		rc.Close()
		if err != nil {
			return p, fmt.Errorf("read %s: %w", name, err)
		}
	}
	p.Total = int64(len(seen))
	return p, nil
}

// HeadOf opens name and returns its Head. A missing artifact yields an empty
// preview when isMissing recognizes the error.
func HeadOf(ctx context.Context, o Opener, name string, limit int, isMissing func(error) bool) (Preview, error) {
	rc, err := o.Open(ctx, name)
	if err != nil {
		if isMissing != nil && isMissing(err) {
			return Preview{Lines: []string{}}, nil
		}
		return Preview{}, err
	}
	defer rc.Close()
	return Head(rc, limit)
}

// CountOf opens name and counts its lines; a missing artifact counts as zero.
func CountOf(ctx context.Context, o Opener, name string, isMissing func(error) bool) (int64, error) {
	rc, err := o.Open(ctx, name)
	if err != nil {
		if isMissing != nil && isMissing(err) {
			return 0, nil
		}
		return 0, err
	}
	defer rc.Close()
	return CountLines(rc)
}

// NotFound builds an isMissing func from a sentinel.
func NotFound(sentinel error) func(error) bool {
	return func(err error) bool { return errors.Is(err, sentinel) }
}
