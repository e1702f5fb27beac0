package validation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/list-cleaner/internal/extsort"
)

// NormalizeResult counts the normalization pass.
type NormalizeResult struct {
	TotalIn        int64
	AfterNormalize int64
}

// Normalize trims every line of in and writes the non-blank ones to out.
// Re-running it over its own output is a no-op. A line longer than
// extsort.MaxLineBytes aborts the run.
func Normalize(ctx context.Context, in io.Reader, out io.Writer) (NormalizeResult, error) {
	var res NormalizeResult
	sc := extsort.NewScanner(in)
	for sc.Scan() {
		res.TotalIn++
		if res.TotalIn%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := writeLine(out, line); err != nil {
			return res, err
		}
		res.AfterNormalize++
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return res, fmt.Errorf("normalize: line %d exceeds %d bytes: %w", res.TotalIn+1, extsort.MaxLineBytes, err)
		}
		return res, fmt.Errorf("normalize: %w", err)
	}
	return res, nil
}
