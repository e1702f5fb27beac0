package validation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/list-cleaner/internal/extsort"
)

// Stage names double as metric suffixes and artifact prefixes.
const (
	StageSyntax     = "syntax"
	StageDNSLocal   = "dns_local"
	StageRole       = "role"
	StageDuplicates = "duplicates"
	StageDNSOnline  = "dns_online"
)

// Stage is one filter. Run reads in to EOF and writes every line to kept or
// rejected.
type Stage interface {
	Name() string
	Run(ctx context.Context, in io.Reader, kept, rejected io.Writer) (StageResult, error)
}

// StageResult counts one stage run. For every stage In == Kept + Removed.
type StageResult struct {
	In      int64
	Kept    int64
	Removed int64
}

func (r StageResult) check(stage string) error {
	if r.Kept+r.Removed != r.In {
		return fmt.Errorf("%s: in=%d kept=%d removed=%d: %w", stage, r.In, r.Kept, r.Removed, ErrPartition)
	}
	return nil
}

// classifyFunc decides one line. out is what goes to the kept stream; rejected
// lines are always written as read.
type classifyFunc func(line string) (out string, keep bool)

// filterLines drives a per-line classifier over in.
func filterLines(ctx context.Context, in io.Reader, kept, rejected io.Writer, classify classifyFunc) (StageResult, error) {
	var res StageResult
	sc := extsort.NewScanner(in)
	for sc.Scan() {
		res.In++
		if res.In%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		line := sc.Text()
		out, keep := classify(line)
		if keep {
			if err := writeLine(kept, out); err != nil {
				return res, err
			}
			res.Kept++
			continue
		}
		if err := writeLine(rejected, line); err != nil {
			return res, err
		}
		res.Removed++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read input: %w", err)
	}
	return res, nil
}

func writeLine(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// splitAddress splits at the first '@'. ok is false when either side is empty
// or there is no '@'.
func splitAddress(addr string) (local, domain string, ok bool) {
	local, domain, found := strings.Cut(addr, "@")
	if !found || local == "" || domain == "" {
		return "", "", false
	}
	return local, domain, true
}
