package validation

import (
	"context"
	"fmt"
	"io"

	"github.com/ignite/list-cleaner/internal/extsort"
)

// DedupStep keeps one copy of every distinct line, in sorted order. Its
// rejected stream is a report listing, once each, the values that occurred
// more than once. Removed counts the dropped extra copies.
type DedupStep struct {
	sorter *extsort.Sorter
}

// NewDedupStep creates the stage. chunkBytes bounds memory per sort run and
// tempDir receives the run files.
func NewDedupStep(chunkBytes int64, tempDir string) *DedupStep {
	return &DedupStep{sorter: &extsort.Sorter{ChunkBytes: chunkBytes, TempDir: tempDir}}
}

func (s *DedupStep) Name() string { return StageDuplicates }

func (s *DedupStep) Run(ctx context.Context, in io.Reader, kept, duplicates io.Writer) (StageResult, error) {
	var res StageResult
	err := s.sorter.Group(ctx, in, func(line string, count int) error {
		res.In += int64(count)
		res.Kept++
		res.Removed += int64(count - 1)
		if err := writeLine(kept, line); err != nil {
			return err
		}
		if count > 1 {
			return writeLine(duplicates, line)
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("deduplicate: %w", err)
	}
	return res, nil
}
