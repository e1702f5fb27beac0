package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestCodedError(t *testing.T) {
	rec := httptest.NewRecorder()
	CodedError(rec, http.StatusConflict, "busy", "upload is being processed")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"upload is being processed","code":"busy"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	var dst struct{ A int }
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))

	assert.False(t, Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "processed_list.txt", "text/plain", strings.NewReader("a@example.com\n"))

	assert.Equal(t, "attachment; filename=processed_list.txt", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a@example.com\n", rec.Body.String())
}
