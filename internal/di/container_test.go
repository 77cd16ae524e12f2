package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmark/tagmark-server/internal/api"
	"github.com/tagmark/tagmark-server/internal/config"
	"github.com/tagmark/tagmark-server/internal/di/providers"
	"github.com/tagmark/tagmark-server/internal/service"
)

func newTestContainer(t *testing.T, extra ...string) *do.RootScope {
	t.Helper()

	dir := t.TempDir()
	args := append([]string{
		"-data-path", filepath.Join(dir, "data"),
		"-env-file", filepath.Join(dir, "missing.env"),
		"-log-level", "error",
	}, extra...)

	cfg, err := config.Load(args)
	require.NoError(t, err)

	injector := NewContainer()
	do.OverrideValue(injector, cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func TestContainer_ResolvesCoreServices(t *testing.T) {
	injector := newTestContainer(t)
	ctx := context.Background()

	authService := do.MustInvoke[*service.AuthService](injector)
	user, err := authService.CreateUser(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	bookmarks := do.MustInvoke[*service.BookmarkService](injector)
	tags := "golang"
	_, err = bookmarks.Create(ctx, user.ID, service.CreateBookmarkRequest{Title: "Go", TagString: &tags})
	require.NoError(t, err)

	// The store was wired to the index, so the write is searchable.
	searchHandle := do.MustInvoke[*providers.SearchHandle](injector)
	require.NotNil(t, searchHandle.Service)
	count, err := searchHandle.Service.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// The auth key is generated once and reused.
	key := do.MustInvoke[providers.AuthKey](injector)
	assert.Len(t, key, 32)
}

func TestContainer_SearchDisabled(t *testing.T) {
	injector := newTestContainer(t, "-search-enabled", "false", "-metrics-enabled", "false")

	searchHandle := do.MustInvoke[*providers.SearchHandle](injector)
	assert.Nil(t, searchHandle.Service)

	RegisterServer(injector)
	server := do.MustInvoke[*api.Server](injector)
	assert.NotNil(t, server)
}
