// Package extsort sorts newline-delimited text that may not fit in memory.
// Input is cut into chunks bounded by a byte budget; each chunk is sorted and
// spilled to a run file, and the runs are merged with a min-heap. Input that
// fits in one chunk never touches disk.
package extsort

import (
	"bufio"
	"container/heap"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	// DefaultChunkBytes bounds the in-memory chunk when none is configured.
	DefaultChunkBytes int64 = 64 << 20

	// MaxLineBytes is the longest line any reader accepts. Longer lines fail
	// the scan with bufio.ErrTooLong.
	MaxLineBytes = 2 * 1024 * 1024

	ctxCheckMask = 1<<12 - 1
)

// Sorter orders lines bytewise. The zero value is usable.
type Sorter struct {
	ChunkBytes int64  // in-memory budget per run
	TempDir    string // where run files are created; "" means os.TempDir
}

// NewScanner returns a line scanner sized for long lines, shared by the
// streaming stages so every reader agrees on the maximum line length.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return sc
}

// Sort reads every line of r and calls emit with each line in ascending
// order, duplicates included.
func (s *Sorter) Sort(ctx context.Context, r io.Reader, emit func(line string) error) error {
	budget := s.ChunkBytes
	if budget <= 0 {
		budget = DefaultChunkBytes
	}

	var (
		runs  []string
		chunk []string
		size  int64
		n     int
	)
	defer func() {
		for _, path := range runs {
			os.Remove(path)
		}
	}()

	sc := NewScanner(r)
	for sc.Scan() {
		n++
		if n&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := sc.Text()
		chunk = append(chunk, line)
		size += int64(len(line)) + 1
		if size >= budget {
			path, err := s.spill(chunk)
			if err != nil {
				return err
			}
			runs = append(runs, path)
			chunk = chunk[:0]
			size = 0
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if len(runs) == 0 {
		sort.Strings(chunk)
		for _, line := range chunk {
			if err := emit(line); err != nil {
				return err
			}
		}
		return nil
	}

	if len(chunk) > 0 {
		path, err := s.spill(chunk)
		if err != nil {
			return err
		}
		runs = append(runs, path)
	}
	return merge(ctx, runs, emit)
}

// Group sorts r and calls fn once per distinct line with its multiplicity.
func (s *Sorter) Group(ctx context.Context, r io.Reader, fn func(line string, count int) error) error {
	var (
		current string
		count   int
	)
	err := s.Sort(ctx, r, func(line string) error {
		if count > 0 && line == current {
			count++
			return nil
		}
		if count > 0 {
			if err := fn(current, count); err != nil {
				return err
			}
		}
		current, count = line, 1
		return nil
	})
	if err != nil {
		return err
	}
	if count > 0 {
		return fn(current, count)
	}
	return nil
}

func (s *Sorter) spill(chunk []string) (string, error) {
	sort.Strings(chunk)

	f, err := os.CreateTemp(s.TempDir, "extsort-run-*.txt")
	if err != nil {
		return "", fmt.Errorf("create run file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range chunk {
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write run %s: %w", f.Name(), err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write run %s: %w", f.Name(), err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("flush run %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close run %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

type cursor struct {
	line string
	sc   *bufio.Scanner
	path string
}

type cursorHeap []*cursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].line < h[j].line }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

func merge(ctx context.Context, runs []string, emit func(string) error) error {
	files := make([]*os.File, 0, len(runs))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	h := make(cursorHeap, 0, len(runs))
	for _, path := range runs {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open run %s: %w", path, err)
		}
		files = append(files, f)
		c := &cursor{sc: NewScanner(bufio.NewReader(f)), path: path}
		ok, err := c.advance()
		if err != nil {
			return err
		}
		if ok {
			h = append(h, c)
		}
	}
	heap.Init(&h)

	n := 0
	for h.Len() > 0 {
		n++
		if n&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c := h[0]
		if err := emit(c.line); err != nil {
			return err
		}
		ok, err := c.advance()
		if err != nil {
			return err
		}
		if ok {
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return nil
}

func (c *cursor) advance() (bool, error) {
	if c.sc.Scan() {
		c.line = c.sc.Text()
		return true, nil
	}
	if err := c.sc.Err(); err != nil {
		return false, fmt.Errorf("read run %s: %w", c.path, err)
	}
	return false, nil
}
