package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmark/tagmark-server/internal/domain"
	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
	"github.com/tagmark/tagmark-server/internal/service"
	"github.com/tagmark/tagmark-server/internal/store"
	"github.com/tagmark/tagmark-server/internal/validation"
)

// asAPIError runs err through the registered huma error constructor, the
// way huma does for an error returned by a handler.
func asAPIError(t *testing.T, status int, err error) *APIError {
	t.Helper()
	RegisterErrorHandler()

	var apiErr *APIError
	require.ErrorAs(t, huma.NewError(status, "unexpected error occurred", err), &apiErr)
	return apiErr
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing bookmark",
			err:        domainerrors.NotFound("bookmark not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "bookmark not found",
		},
		{
			name:       "save failure hides its cause",
			err:        domainerrors.SaveFailed("The bookmark could not be saved. Please, try again.", errors.New("database is locked")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "SAVE_FAILED",
			wantMsg:    "The bookmark could not be saved. Please, try again.",
		},
		{
			name:       "wrapped domain error",
			err:        errors.Join(errors.New("edit bookmark"), domainerrors.Forbidden("not allowed")),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
			wantMsg:    "not allowed",
		},
		{
			name:       "store not found",
			err:        store.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "resource not found",
		},
		{
			name:       "plain error",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := asAPIError(t, http.StatusInternalServerError, tt.err)

			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.NotContains(t, apiErr.Message, "database is locked")
		})
	}
}

func TestErrorHandler_ValidationEchoesInput(t *testing.T) {
	tags := "go, docs"
	req := service.CreateBookmarkRequest{
		Title:     "A title well past the fifty character limit for one bookmark",
		URL:       "https://go.dev",
		TagString: &tags,
	}
	err := validation.New().ValidateInput(req)
	require.Error(t, err)

	apiErr := asAPIError(t, http.StatusInternalServerError, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	failure, ok := apiErr.Details.(validation.Failure)
	require.True(t, ok, "details are %T", apiErr.Details)
	assert.Equal(t, "must not exceed 50 characters", failure.Errors["title"])
	assert.Equal(t, req, failure.Input)
}

func TestErrorHandler_RequestSchemaFailureIsBadRequest(t *testing.T) {
	RegisterErrorHandler()

	err := huma.NewError(http.StatusUnprocessableEntity, "validation failed",
		&huma.ErrorDetail{Location: "body.url", Message: "expected string"},
		&huma.ErrorDetail{Location: "body.title", Message: "expected length <= 50"},
	)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, map[string]any{"errors": map[string]string{
		"body.url":   "expected string",
		"body.title": "expected length <= 50",
	}}, apiErr.Details)
}

func TestEnvelopeTransformer_WrapsBookmark(t *testing.T) {
	summary := domain.BookmarkSummary{ID: "bm-1", URL: "https://go.dev", Title: "Go"}

	result, err := EnvelopeTransformer(nil, "201", summary)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, summary, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_ErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		input   any
		wantKey string
	}{
		{"coded error", "404", &APIError{Code: "NOT_FOUND", Message: "bookmark not found"}, "code"},
		{"uncoded error", "429", &APIError{Message: "slow down"}, "error"},
		{"plain error", "500", errors.New("boom"), "error"},
		{"error status without error value", "400", map[string]string{"title": "bad"}, "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			body, err := json.Marshal(result)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, float64(EnvelopeVersion), out["v"])
			assert.Equal(t, false, out["success"])
			assert.Contains(t, out, tt.wantKey)
		})
	}
}
