package validation

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/list-cleaner/internal/extsort"
)

func TestNormalize(t *testing.T) {
	in := "  john@example.com \n\n\t\nJane@Example.com\r\n   \nlast@example.com"

	var out bytes.Buffer
	res, err := Normalize(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)

	assert.Equal(t, int64(6), res.TotalIn)
	assert.Equal(t, int64(3), res.AfterNormalize)
	assert.Equal(t, "john@example.com\nJane@Example.com\nlast@example.com\n", out.String())
}

func TestNormalize_Idempotent(t *testing.T) {
	var first, second bytes.Buffer
	_, err := Normalize(context.Background(), strings.NewReader(" a@x.com\n\n b@y.com \n"), &first)
	require.NoError(t, err)

	res, err := Normalize(context.Background(), bytes.NewReader(first.Bytes()), &second)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, res.TotalIn, res.AfterNormalize)
}

func TestNormalize_Empty(t *testing.T) {
	var out bytes.Buffer
	res, err := Normalize(context.Background(), strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, NormalizeResult{}, res)
	assert.Empty(t, out.String())
}

func TestNormalize_LineTooLong(t *testing.T) {
	in := "a@example.com\n\nb@example.com\n" + strings.Repeat("x", extsort.MaxLineBytes+1) + "\nc@example.com\n"

	var out bytes.Buffer
	res, err := Normalize(context.Background(), strings.NewReader(in), &out)
	require.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Contains(t, err.Error(), "line 4 exceeds")
	assert.Equal(t, int64(3), res.TotalIn)
	assert.Equal(t, int64(2), res.AfterNormalize)
}
