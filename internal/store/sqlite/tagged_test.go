package sqlite

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/tagmark/tagmark-server/internal/domain"
)

func goRef(tagID string) domain.TagRef {
	return domain.TagRef{Tag: domain.Tag{ID: tagID, Title: "go"}}
}

func summaryIDs(summaries []domain.BookmarkSummary) []string {
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestNewTaggedQuery(t *testing.T) {
	empty := NewTaggedQuery(nil)
	if !strings.Contains(empty.SQL, "LEFT JOIN") || !strings.Contains(empty.SQL, "t.title IS NULL") {
		t.Errorf("empty branch should left join and filter missing tags:\n%s", empty.SQL)
	}
	if !strings.Contains(empty.SQL, "GROUP BY b.id") {
		t.Errorf("empty branch should group by bookmark id")
	}
	if len(empty.Args) != 0 {
		t.Errorf("empty branch args: %v", empty.Args)
	}

	tagged := NewTaggedQuery([]string{"go", "db"})
	if !strings.Contains(tagged.SQL, "INNER JOIN") || !strings.Contains(tagged.SQL, "t.title IN (SELECT value FROM json_each(?))") {
		t.Errorf("tagged branch should inner join on the titles:\n%s", tagged.SQL)
	}
	if !strings.Contains(tagged.SQL, "GROUP BY b.id") {
		t.Errorf("tagged branch should group by bookmark id")
	}
	if len(tagged.Args) != 1 || tagged.Args[0] != `["go","db"]` {
		t.Errorf("tagged branch args: %v", tagged.Args)
	}
}

// seedTagged creates:
//
//	bm-untagged: no tags
//	bm-go:       go
//	bm-go-db:    go, db
//	bm-web:      web (owned by user-2)
func seedTagged(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	makeTestUser(t, s, "user-1", "alice@example.com")
	makeTestUser(t, s, "user-2", "bob@example.com")

	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-untagged", "user-1", "bare"), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-go", "user-1", "go"), staged("go")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	goTag, err := s.GetTagByTitle(ctx, "go")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	refs := append([]domain.TagRef{goRef(goTag.ID)}, staged("db")...)
	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-go-db", "user-1", "go and db"), refs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.CreateBookmark(ctx, makeTestBookmark("bm-web", "user-2", "web"), staged("web")); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestFindBookmarksByTags_Empty(t *testing.T) {
	s := newTestStore(t)
	seedTagged(t, s)

	got, err := s.FindBookmarksByTags(context.Background(), []string{})
	if err != nil {
		t.Fatalf("FindBookmarksByTags: %v", err)
	}
	ids := summaryIDs(got)
	if len(ids) != 1 || ids[0] != "bm-untagged" {
		t.Errorf("expected only bm-untagged, got %v", ids)
	}
}

func TestFindBookmarksByTags_EachMatchOnce(t *testing.T) {
	s := newTestStore(t)
	seedTagged(t, s)

	got, err := s.FindBookmarksByTags(context.Background(), []string{"go", "db"})
	if err != nil {
		t.Fatalf("FindBookmarksByTags: %v", err)
	}
	ids := summaryIDs(got)
	if strings.Join(ids, ",") != "bm-go,bm-go-db" {
		t.Errorf("expected bm-go and bm-go-db once each, got %v", ids)
	}

	for _, summary := range got {
		if summary.URL == "" {
			t.Errorf("summary %s missing url", summary.ID)
		}
	}
}

func TestFindBookmarksByTags_CrossUser(t *testing.T) {
	s := newTestStore(t)
	seedTagged(t, s)

	got, err := s.FindBookmarksByTags(context.Background(), []string{"web", "go"})
	if err != nil {
		t.Fatalf("FindBookmarksByTags: %v", err)
	}
	ids := summaryIDs(got)
	if strings.Join(ids, ",") != "bm-go,bm-go-db,bm-web" {
		t.Errorf("expected matches across owners, got %v", ids)
	}
}

func TestFindBookmarksByTags_NoMatch(t *testing.T) {
	s := newTestStore(t)
	seedTagged(t, s)

	got, err := s.FindBookmarksByTags(context.Background(), []string{"Go"})
	if err != nil {
		t.Fatalf("FindBookmarksByTags: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("title matching is case-sensitive, got %v", summaryIDs(got))
	}
}
