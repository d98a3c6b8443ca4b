package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusTeapot, map[string]string{"k": "v"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v", body["k"])
}

func TestWriteSuccessAndCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(rec, []int{1, 2}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, WriteCreated(rec, map[string]string{"id": "x"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name  string
		write func(http.ResponseWriter)
		code  int
		msg   string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "bad input") }, http.StatusBadRequest, "bad input"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "who are you") }, http.StatusUnauthorized, "who are you"},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "no") }, http.StatusForbidden, "no"},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "missing") }, http.StatusNotFound, "missing"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, errors.New("boom")) }, http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}
