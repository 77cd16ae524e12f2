package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagmark/tagmark-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*Index, string) {
	t.Helper()

	dir := t.TempDir()
	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index, dir
}

func seedDocs(t *testing.T, index *Index) {
	t.Helper()

	now := time.Now()
	docs := []*Document{
		{ID: "bm-1", OwnerID: "user-a", Title: "Kubernetes operators explained", URL: "https://example.com/k8s", Tags: []string{"tech"}, CreatedAt: now.Add(-3 * time.Hour).UnixMilli()},
		{ID: "bm-2", OwnerID: "user-a", Title: "Morning headlines", Description: "Daily kubernetes digest", Tags: []string{"news", "tech"}, CreatedAt: now.Add(-2 * time.Hour).UnixMilli()},
		{ID: "bm-3", OwnerID: "user-a", Title: "Bread baking", URL: "https://bread.example.org", CreatedAt: now.Add(-time.Hour).UnixMilli()},
		{ID: "bm-4", OwnerID: "user-b", Title: "Kubernetes for user b", Tags: []string{"tech"}, CreatedAt: now.UnixMilli()},
	}
	require.NoError(t, index.IndexDocuments(docs))
}

func hitIDs(r *Result) []string {
	ids := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}

func TestNewIndex(t *testing.T) {
	index, _ := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndex_IndexDocument(t *testing.T) {
	index, _ := setupTestIndex(t)

	b := &domain.Bookmark{
		ID:     "bm-1",
		UserID: "user-a",
		Title:  "Go blog",
		URL:    "https://go.dev/blog",
		Tags:   []domain.Tag{{ID: "t1", Title: "golang"}},
	}
	b.InitTimestamps()

	require.NoError(t, index.IndexDocument(FromBookmark(b)))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Reindexing the same id replaces the document.
	b.Title = "Go blog (updated)"
	require.NoError(t, index.IndexDocument(FromBookmark(b)))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearch_ScopedToOwner(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	params := DefaultParams("user-a")
	params.Query = "kubernetes"

	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"bm-1", "bm-2"}, hitIDs(res))
	assert.Equal(t, "bm-1", res.Hits[0].ID, "title matches outrank description matches")
}

func TestSearch_RequiresOwner(t *testing.T) {
	index, _ := setupTestIndex(t)

	_, err := index.Search(context.Background(), Params{Query: "anything"})
	assert.Error(t, err)
}

func TestSearch_EmptyQueryListsOwnerDocuments(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	params := DefaultParams("user-a")
	params.SortBy = "recent"

	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), res.Total)
	assert.Equal(t, []string{"bm-3", "bm-2", "bm-1"}, hitIDs(res))
}

func TestSearch_TagFilter(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	params := DefaultParams("user-a")
	params.Tags = []string{"news", "tech"}

	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{"bm-2"}, hitIDs(res))
	assert.ElementsMatch(t, []string{"news", "tech"}, res.Hits[0].Tags)
}

func TestSearch_MatchesExactTag(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	params := DefaultParams("user-a")
	params.Query = "news"

	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{"bm-2"}, hitIDs(res))
}

func TestSearch_TagFacets(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	res, err := index.Search(context.Background(), DefaultParams("user-a"))
	require.NoError(t, err)

	counts := map[string]int{}
	for _, f := range res.Tags {
		counts[f.Value] = f.Count
	}
	assert.Equal(t, map[string]int{"tech": 2, "news": 1}, counts)
}

func TestIndex_DeleteDocument(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	require.NoError(t, index.DeleteDocument("bm-1"))

	params := DefaultParams("user-a")
	params.Query = "operators"
	res, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_Rebuild(t *testing.T) {
	index, _ := setupTestIndex(t)
	seedDocs(t, index)

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewIndex_ReopensExisting(t *testing.T) {
	dir := t.TempDir()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	seedDocs(t, index)
	require.NoError(t, index.Close())

	reopened, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestNewIndex_MappingVersionChangeRebuilds(t *testing.T) {
	dir := t.TempDir()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	seedDocs(t, index)
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookmarks.version"), []byte("0"), 0o600))

	rebuilt, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer rebuilt.Close()

	count, err := rebuilt.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestFromBookmark(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &domain.Bookmark{
		ID:          "bm-1",
		UserID:      "user-a",
		Title:       "T",
		Description: "D",
		URL:         "https://example.com",
		Tags:        []domain.Tag{{Title: "news"}, {Title: "tech"}},
	}
	b.CreatedAt = created

	doc := FromBookmark(b)
	assert.Equal(t, "user-a", doc.OwnerID)
	assert.Equal(t, []string{"news", "tech"}, doc.Tags)
	assert.Equal(t, created.UnixMilli(), doc.CreatedAt)

	m := doc.ToMap()
	assert.Equal(t, "https://example.com", m["url"])
	assert.NotContains(t, (&Document{ID: "x"}).ToMap(), "tags")
}
