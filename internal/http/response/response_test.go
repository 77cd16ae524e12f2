package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
	"github.com/tagmark/tagmark-server/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"id": "123"}, discard())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	result := decode[Envelope](t, w)
	assert.Equal(t, Version, result.Version)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "123", data["id"])
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	Created(w, map[string]string{"id": "new"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[Envelope](t, w).Success)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "msg", nil) }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "msg", nil) }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "msg", nil) }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "msg", nil) }, http.StatusNotFound},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "msg", nil) }, http.StatusTooManyRequests},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "msg", nil) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			result := decode[Envelope](t, w)
			assert.False(t, result.Success)
			assert.Equal(t, "msg", result.Error)
			assert.Nil(t, result.Data)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowed(w, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.False(t, decode[Envelope](t, w).Success)
}

func TestStatusCodeBoundary(t *testing.T) {
	tests := []struct {
		status          int
		expectedSuccess bool
	}{
		{200, true},
		{201, true},
		{399, true},
		{400, false},
		{500, false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		JSON(w, tt.status, nil, nil)
		assert.Equal(t, tt.expectedSuccess, decode[Envelope](t, w).Success, "status %d", tt.status)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		hasCoded bool
	}{
		{
			name:     "forbidden domain error",
			err:      domainerrors.Forbidden("You are not authorized to access that location."),
			status:   http.StatusForbidden,
			code:     "FORBIDDEN",
			message:  "You are not authorized to access that location.",
			hasCoded: true,
		},
		{
			name:     "save failure hides cause",
			err:      domainerrors.SaveFailed("could not save", errors.New("disk on fire")),
			status:   http.StatusInternalServerError,
			code:     "SAVE_FAILED",
			message:  "could not save",
			hasCoded: true,
		},
		{
			name:    "store not found",
			err:     store.ErrNotFound,
			status:  http.StatusNotFound,
			message: "resource not found",
		},
		{
			name:    "unknown",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discard())

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "disk on fire")

			if tt.hasCoded {
				result := decode[ErrorEnvelope](t, w)
				assert.Equal(t, tt.code, result.Code)
				assert.Equal(t, tt.message, result.Message)
				return
			}
			assert.Equal(t, tt.message, decode[Envelope](t, w).Error)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "too long"})

	HandleError(w, err, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	result := decode[ErrorEnvelope](t, w)
	assert.Equal(t, "VALIDATION_ERROR", result.Code)
	assert.Equal(t, map[string]any{"title": "too long"}, result.Details)
}
