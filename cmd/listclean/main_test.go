package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/list-cleaner/internal/validation"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-in", "lists/a.txt", "-syntax", "-dedup"})
	require.NoError(t, err)
	assert.Equal(t, "lists", o.out)
	assert.Equal(t, validation.Options{Syntax: true, RemoveDuplicates: true}, o.stages)

	_, err = parseFlags([]string{"-in", "a.txt"})
	assert.ErrorIs(t, err, validation.ErrNoStages)

	_, err = parseFlags([]string{"-syntax"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	in := filepath.Join(inDir, "list.txt")
	require.NoError(t, os.WriteFile(in, []byte("maria.lopez@example.com\nMaria.Lopez@Example.com\nnot an address\n"), 0644))

	var stdout bytes.Buffer
	o := &options{in: in, out: outDir, stages: validation.Options{Syntax: true, RemoveDuplicates: true}}
	require.NoError(t, run(context.Background(), o, &stdout))

	var res struct {
		Metrics map[string]int64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.Equal(t, int64(3), res.Metrics["total_in"])
	assert.Equal(t, int64(1), res.Metrics["removed_syntax"])
	assert.Equal(t, int64(1), res.Metrics["removed_duplicates"])
	assert.Equal(t, int64(1), res.Metrics["total_out"])

	processed, err := os.ReadFile(filepath.Join(outDir, "processed_list.txt"))
	require.NoError(t, err)
	assert.Equal(t, "maria.lopez@example.com\n", string(processed))
}
