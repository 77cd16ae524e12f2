package sqlite

import (
	"context"
	"fmt"

	"github.com/tagmark/tagmark-server/internal/domain"
)

// TaggedQuery is a fully built tag-browse query.
type TaggedQuery struct {
	SQL  string
	Args []any
}

// NewTaggedQuery builds the query behind tag browsing.
//
// With no titles it selects bookmarks that have no tags at all. With titles
// it selects bookmarks carrying at least one of them. Both branches group by
// bookmark id so each bookmark appears once. Results are not owner-scoped.
func NewTaggedQuery(titles []string) TaggedQuery {
	if len(titles) == 0 {
		return TaggedQuery{
			SQL: `SELECT b.id, b.url, b.title, b.description
				FROM bookmarks b
				LEFT JOIN bookmarks_tags bt ON bt.bookmark_id = b.id
				LEFT JOIN tags t ON t.id = bt.tag_id
				WHERE t.title IS NULL
				GROUP BY b.id`,
			Args: []any{},
		}
	}

	return TaggedQuery{
		SQL: `SELECT b.id, b.url, b.title, b.description
			FROM bookmarks b
			INNER JOIN bookmarks_tags bt ON bt.bookmark_id = b.id
			INNER JOIN tags t ON t.id = bt.tag_id
			WHERE t.title IN ` + inList + `
			GROUP BY b.id`,
		Args: []any{jsonList(titles)},
	}
}

// FindBookmarksByTags runs the tag-browse query for titles.
func (s *Store) FindBookmarksByTags(ctx context.Context, titles []string) ([]domain.BookmarkSummary, error) {
	q := NewTaggedQuery(titles)

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("find bookmarks by tags: %w", err)
	}
	defer rows.Close()

	summaries := []domain.BookmarkSummary{}
	for rows.Next() {
		var bs domain.BookmarkSummary
		if err := rows.Scan(&bs.ID, &bs.URL, &bs.Title, &bs.Description); err != nil {
			return nil, fmt.Errorf("scan bookmark summary: %w", err)
		}
		summaries = append(summaries, bs)
	}
	return summaries, rows.Err()
}
