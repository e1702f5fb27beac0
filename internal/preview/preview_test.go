package preview

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

type mapOpener map[string]string

func (m mapOpener) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m[name]
	if !ok {
		return nil, errMissing
	}
	return io.NopCloser(bytes.NewBufferString(data)), nil
}

func TestCountLines(t *testing.T) {
	n, err := CountLines(strings.NewReader("a\n\nb\nc"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = CountLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestHead(t *testing.T) {
	p, err := Head(strings.NewReader("a\nb\nc\nd\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, Preview{Lines: []string{"a", "b"}, Total: 4}, p)

	p, err = Head(strings.NewReader("a\n"), 10)
	require.NoError(t, err)
	assert.Equal(t, Preview{Lines: []string{"a"}, Total: 1}, p)
}

func TestDistinctUnion(t *testing.T) {
	o := mapOpener{
		"syntax":     "bad@@x\nbad two\n\n",
		"dns_local":  "a@other.com\nbad two\n",
		"dns_online": "a@other.com\nz@dead.io\n",
	}

	p, err := DistinctUnion(context.Background(), o, []string{"syntax", "dns_local", "role", "dns_online"}, 3, NotFound(errMissing))
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Total)
	assert.Equal(t, []string{"bad@@x", "bad two", "a@other.com"}, p.Lines)
}

func TestDistinctUnion_OpenErrorPropagates(t *testing.T) {
	_, err := DistinctUnion(context.Background(), mapOpener{}, []string{"x"}, 10, nil)
	assert.ErrorIs(t, err, errMissing)
}

func TestHeadOfAndCountOf(t *testing.T) {
	o := mapOpener{"processed": "a\nb\nc\n"}
	missing := NotFound(errMissing)

	p, err := HeadOf(context.Background(), o, "processed", 2, missing)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Lines)
	assert.Equal(t, int64(3), p.Total)

	p, err = HeadOf(context.Background(), o, "gone", 2, missing)
	require.NoError(t, err)
	assert.Empty(t, p.Lines)

	n, err := CountOf(context.Background(), o, "gone", missing)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = CountOf(context.Background(), o, "gone", nil)
	assert.ErrorIs(t, err, errMissing)
}
