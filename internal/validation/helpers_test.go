package validation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNoObject = errors.New("object not found")

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, errNoObject
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Put(_ context.Context, name string, r io.Reader, contentType string) error {
	if name == m.failPut {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	m.types[name] = contentType
	return nil
}

func (m *memStore) lines(t *testing.T, name string) []string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	require.True(t, ok, "missing artifact %s", name)
	return splitLines(string(data))
}

type fakeResolver struct {
	mu    sync.Mutex
	mx    map[string]bool
	fail  map[string]bool
	calls map[string]int
}

func newFakeResolver(withMX ...string) *fakeResolver {
	r := &fakeResolver{mx: map[string]bool{}, fail: map[string]bool{}, calls: map[string]int{}}
	for _, d := range withMX {
		r.mx[d] = true
	}
	return r
}

func (r *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	r.mu.Lock()
	r.calls[name]++
	fail, hasMX := r.fail[name], r.mx[name]
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, &net.DNSError{Err: "server misbehaving", Name: name, IsTemporary: true}
	}
	if !hasMX {
		return nil, nil
	}
	return []*net.MX{{Host: "mx1." + name + ".", Pref: 10}}, nil
}

func (r *fakeResolver) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// runStageOn feeds lines through stage via a temp file so seekable stages work.
func runStageOn(t *testing.T, stage Stage, lines ...string) (StageResult, []string, []string) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "in-*.txt")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(joinLines(lines))
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	var kept, rejected bytes.Buffer
	res, err := stage.Run(context.Background(), f, &kept, &rejected)
	require.NoError(t, err)
	return res, splitLines(kept.String()), splitLines(rejected.String())
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
