package validation

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupStep(t *testing.T) {
	step := NewDedupStep(0, t.TempDir())

	res, kept, dups := runStageOn(t, step,
		"b@x.com", "a@x.com", "b@x.com", "c@x.com", "b@x.com", "a@x.com", "d@x.com",
	)

	assert.Equal(t, StageResult{In: 7, Kept: 4, Removed: 3}, res)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}, kept)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, dups)
}

func TestDedupStep_SpillsToDisk(t *testing.T) {
	dir := t.TempDir()
	step := NewDedupStep(128, dir)

	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, fmt.Sprintf("user%03d@example.com", i%120))
	}

	res, kept, dups := runStageOn(t, step, lines...)

	assert.Equal(t, int64(300), res.In)
	assert.Equal(t, int64(120), res.Kept)
	assert.Equal(t, int64(180), res.Removed)
	assert.Len(t, kept, 120)
	assert.Len(t, dups, 120)
	for i := 1; i < len(kept); i++ {
		assert.Less(t, kept[i-1], kept[i])
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDedupStep_NoDuplicates(t *testing.T) {
	res, kept, dups := runStageOn(t, NewDedupStep(0, ""), "z@x.com", "y@x.com")

	assert.Equal(t, StageResult{In: 2, Kept: 2, Removed: 0}, res)
	assert.Equal(t, []string{"y@x.com", "z@x.com"}, kept)
	assert.Empty(t, dups)
}
