package extsort

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s *Sorter, input string) []string {
	t.Helper()
	var out []string
	err := s.Sort(context.Background(), strings.NewReader(input), func(line string) error {
		out = append(out, line)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestSort_InMemory(t *testing.T) {
	dir := t.TempDir()
	s := &Sorter{TempDir: dir}

	out := collect(t, s, "c@x.com\na@x.com\nb@x.com\na@x.com\n")
	assert.Equal(t, []string{"a@x.com", "a@x.com", "b@x.com", "c@x.com"}, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "single chunk must not spill")
}

func TestSort_SpillsAndMerges(t *testing.T) {
	dir := t.TempDir()
	s := &Sorter{ChunkBytes: 64, TempDir: dir}

	rng := rand.New(rand.NewSource(42))
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("user%03d@example%d.com", rng.Intn(200), rng.Intn(3)))
	}

	out := collect(t, s, strings.Join(lines, "\n")+"\n")

	want := append([]string(nil), lines...)
	sort.Strings(want)
	assert.Equal(t, want, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "run files must be removed")
}

func TestSort_EmptyInput(t *testing.T) {
	out := collect(t, &Sorter{}, "")
	assert.Empty(t, out)
}

func TestSort_EmitErrorCleansUp(t *testing.T) {
	dir := t.TempDir()
	s := &Sorter{ChunkBytes: 8, TempDir: dir}
	boom := errors.New("boom")

	err := s.Sort(context.Background(), strings.NewReader("d\nc\nb\na\ne\nf\n"), func(string) error { return boom })
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSort_MissingTempDir(t *testing.T) {
	s := &Sorter{ChunkBytes: 1, TempDir: "/nonexistent/extsort"}
	err := s.Sort(context.Background(), strings.NewReader("b\na\n"), func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create run file")
}

func TestGroup_Multiplicity(t *testing.T) {
	for _, chunk := range []int64{0, 4} {
		t.Run(fmt.Sprintf("chunk=%d", chunk), func(t *testing.T) {
			s := &Sorter{ChunkBytes: chunk, TempDir: t.TempDir()}
			got := map[string]int{}
			var order []string
			err := s.Group(context.Background(), strings.NewReader("b\na\nb\nc\nb\na\n"), func(line string, n int) error {
				got[line] = n
				order = append(order, line)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"a": 2, "b": 3, "c": 1}, got)
			assert.Equal(t, []string{"a", "b", "c"}, order)
		})
	}
}
