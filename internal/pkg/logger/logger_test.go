package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := SetOutput(buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(prev)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return buf
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-address"))
	assert.Equal(t, "***@***", RedactEmail("a@b@c"))
}

func TestLog_RedactsEmbeddedAddresses(t *testing.T) {
	buf := capture(t)

	Info("stage done", "stage", "role", "sample", "first was john.doe@example.com", "kept", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "stage done", entry["msg"])
	assert.Equal(t, "first was jo***@example.com", entry["sample"])
	assert.EqualValues(t, 3, entry["kept"])
}

func TestLog_LevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Warn("shown", "err", errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	assert.Contains(t, string(lines[0]), `"err":"boom"`)
}

func TestLog_RedactionDisabled(t *testing.T) {
	buf := capture(t)
	SetRedactPII(false)

	Debug("lookup", "email", "john.doe@example.com")
	assert.Contains(t, buf.String(), "john.doe@example.com")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}
