package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tagmark/tagmark-server/internal/access"
	"github.com/tagmark/tagmark-server/internal/auth"
	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/markup"
	"github.com/tagmark/tagmark-server/internal/metrics"
	"github.com/tagmark/tagmark-server/internal/store/sqlite"
)

// testEnv holds services wired to a temporary SQLite store.
type testEnv struct {
	store     *sqlite.Store
	tokens    *auth.TokenService
	sessions  *SessionService
	auth      *AuthService
	bookmarks *BookmarkService
	tags      *TagService
	transfer  *TransferService
	metrics   *metrics.Metrics
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	sessions := NewSessionService(s, tokens, nil)
	bookmarks := NewBookmarkService(s, access.NewPolicy(s, nil), markup.NewRenderer(), m, discardLogger())

	return &testEnv{
		store:     s,
		tokens:    tokens,
		sessions:  sessions,
		auth:      NewAuthService(s, tokens, sessions, false, nil),
		bookmarks: bookmarks,
		tags:      NewTagService(s, nil),
		transfer:  NewTransferService(s, bookmarks, discardLogger()),
		metrics:   m,
	}
}

// createUser inserts a user directly, bypassing password hashing.
func (e *testEnv) createUser(t *testing.T, id, email string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Email: email, PasswordHash: "unused"}
	u.InitTimestamps()
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func strPtr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
