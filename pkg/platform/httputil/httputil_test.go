package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "internal errors must not leak a description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, BadRequest("invalid %s", "input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("find: %w", sentinel.ErrNotFound), http.StatusNotFound},
		{"conflict", sentinel.ErrConflict, http.StatusConflict},
		{"unavailable", sentinel.ErrUnavailable, http.StatusServiceUnavailable},
		{"invalid id", id.ErrInvalidID, http.StatusBadRequest},
		{"invalid option", activity.ErrInvalidOption, http.StatusBadRequest},
		{"no key", activity.ErrNoKeyProvided, http.StatusUnprocessableEntity},
		{"bad reference", activity.ErrInvalidReference, http.StatusUnprocessableEntity},
		{"storage", &activity.StorageError{Op: "append", Err: errors.New("disk")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, Classify(tt.err).Status)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("unknown fields are rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a","nope":1}`))
		var v struct {
			Title string `json:"title"`
		}
		err := DecodeJSON(r, &v)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, Classify(err).Status)
	})

	t.Run("valid body decodes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a"}`))
		var v struct {
			Title string `json:"title"`
		}
		require.NoError(t, DecodeJSON(r, &v))
		assert.Equal(t, "a", v.Title)
	})
}
