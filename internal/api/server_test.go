package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmark/tagmark-server/internal/access"
	"github.com/tagmark/tagmark-server/internal/auth"
	"github.com/tagmark/tagmark-server/internal/markup"
	"github.com/tagmark/tagmark-server/internal/metrics"
	"github.com/tagmark/tagmark-server/internal/search"
	"github.com/tagmark/tagmark-server/internal/service"
	"github.com/tagmark/tagmark-server/internal/store/sqlite"
)

// testEnvelope decodes any response body written by the API.
type testEnvelope[T any] struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api     humatest.TestAPI
	store   *sqlite.Store
	metrics *metrics.Metrics
}

type serverOption func(*Options)

func withAuthLimiter(l *RateLimiter) serverOption {
	return func(o *Options) { o.AuthRateLimiter = l }
}

func withTrustProxy() serverOption {
	return func(o *Options) { o.TrustProxy = true }
}

// setupTestServer creates a test server with all dependencies on a
// temporary database and search index.
func setupTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	sessions := service.NewSessionService(st, tokens, logger)
	bookmarks := service.NewBookmarkService(st, access.NewPolicy(st, access.DenyAll), markup.NewRenderer(), m, logger)
	searchService := service.NewSearchService(index, st, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Auth:     service.NewAuthService(st, tokens, sessions, true, logger),
		Session:  sessions,
		Bookmark: bookmarks,
		Tag:      service.NewTagService(st, logger),
		Search:   searchService,
		Transfer: service.NewTransferService(st, bookmarks, logger),
	}

	options := Options{
		Version:         "test",
		AuthRateLimiter: NewRateLimiter(1000, time.Minute, 1000),
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := NewServer(st, services, m, options, logger)
	t.Cleanup(s.Shutdown)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		store:   st,
		metrics: m,
	}
}

// register creates an account and returns its access token and user ID.
func (ts *testServer) register(t *testing.T, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/auth/register", map[string]any{
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	return env.Data.AccessToken, env.Data.User.ID
}

// addBookmark creates a bookmark through the API and returns it.
func (ts *testServer) addBookmark(t *testing.T, token string, body map[string]any) BookmarkResponse {
	t.Helper()

	resp := ts.api.Post("/bookmarks/add", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, "add failed: %s", resp.Body.String())

	return decode[BookmarkResponse](t, resp.Body.Bytes()).Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.register(t, "one@example.com")

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/bookmarks/delete/bookmark-x"},
		{http.MethodPut, "/bookmarks/delete/bookmark-x"},
		{http.MethodDelete, "/bookmarks/view/bookmark-x"},
		{http.MethodPut, "/bookmarks/add"},
		{http.MethodDelete, "/bookmarks/edit/bookmark-x"},
		{http.MethodPost, "/bookmarks"},
		{http.MethodPost, "/bookmarks/tagged/go"},
		{http.MethodGet, "/bookmarks/import"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := ts.api.Do(tt.method, tt.path, bearer(token))

			assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
			env := decode[any](t, resp.Body.Bytes())
			assert.False(t, env.Success)
			assert.Equal(t, EnvelopeVersion, env.Version)
		})
	}
}

func TestServer_NotFoundRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/nope")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.False(t, decode[any](t, resp.Body.Bytes()).Success)
}

func TestServer_Metrics(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.register(t, "one@example.com")
	ts.addBookmark(t, token, map[string]any{"title": "a", "tag_string": "go, db"})

	resp := ts.api.Get("/metrics")

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `tagmark_bookmark_writes_total{op="create"} 1`)
	assert.Contains(t, body, "tagmark_tags_created_total 2")
	assert.Contains(t, body, `route="/bookmarks/add"`)
}

func TestServer_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name    string
		header  []any
		message string
	}{
		{"missing header", nil, "Missing authorization header"},
		{"wrong scheme", []any{"Authorization: Basic abc"}, "Invalid authorization header format"},
		{"garbage token", []any{"Authorization: Bearer garbage"}, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/bookmarks", tt.header...)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			env := decode[any](t, resp.Body.Bytes())
			assert.Equal(t, "UNAUTHORIZED", env.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}

	// Plain chi routes answer the same way.
	resp := ts.api.Get("/bookmarks/tagged/go")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Missing authorization header", decode[any](t, resp.Body.Bytes()).Error)
}
