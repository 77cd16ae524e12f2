package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/id"
	"github.com/tagmark/tagmark-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, title`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (domain.Tag, error) {
	var t domain.Tag
	err := scanner.Scan(&t.ID, &t.Title)
	return t, err
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// FindTagsByTitles returns the existing tags whose title is one of titles,
// ordered by title. Matching is exact and case-sensitive.
func (s *Store) FindTagsByTitles(ctx context.Context, titles []string) ([]domain.Tag, error) {
	if len(titles) == 0 {
		return []domain.Tag{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE title IN `+inList+` ORDER BY title`,
		jsonList(titles))
	if err != nil {
		return nil, fmt.Errorf("find tags by titles: %w", err)
	}
	defer rows.Close()

	tags := make([]domain.Tag, 0, len(titles))
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTagByTitle retrieves a tag by its exact title.
// Returns store.ErrNotFound if no tag has that title.
func (s *Store) GetTagByTitle(ctx context.Context, title string) (*domain.Tag, error) {
	return getTagByTitle(ctx, s.db, title)
}

func getTagByTitle(ctx context.Context, q queryer, title string) (*domain.Tag, error) {
	row := q.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE title = ?`, title)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns the whole vocabulary with bookmark counts, ordered by
// title. Unreferenced tags are included with a zero count.
func (s *Store) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, COUNT(bt.bookmark_id)
		FROM tags t
		LEFT JOIN bookmarks_tags bt ON bt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.title`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.ID, &tc.Title, &tc.BookmarkCount); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// resolveTags inserts staged tags inside tx and returns the full tag list.
// A staged title that another writer inserted first is reloaded and
// referenced instead of failing the save.
func (s *Store) resolveTags(ctx context.Context, tx *sql.Tx, refs []domain.TagRef) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(refs))
	for _, ref := range refs {
		if !ref.Staged {
			tags = append(tags, ref.Tag)
			continue
		}

		tagID, err := id.Generate("tag")
		if err != nil {
			return nil, fmt.Errorf("generate tag id: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO tags (id, title) VALUES (?, ?)`, tagID, ref.Title)
		if err == nil {
			tags = append(tags, domain.Tag{ID: tagID, Title: ref.Title})
			continue
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("insert tag %q: %w", ref.Title, err)
		}

		existing, err := getTagByTitle(ctx, tx, ref.Title)
		if err != nil {
			return nil, fmt.Errorf("reload tag %q: %w", ref.Title, err)
		}
		s.logger.Debug("tag created concurrently, reusing", "title", ref.Title, "tag_id", existing.ID)
		tags = append(tags, *existing)
	}
	return tags, nil
}

// replaceBookmarkTags swaps the join rows of a bookmark for tags.
func replaceBookmarkTags(ctx context.Context, tx *sql.Tx, bookmarkID string, tags []domain.Tag) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks_tags WHERE bookmark_id = ?`, bookmarkID); err != nil {
		return fmt.Errorf("delete bookmarks_tags: %w", err)
	}

	for _, t := range tags {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO bookmarks_tags (bookmark_id, tag_id)
			VALUES (?, ?)`,
			bookmarkID,
			t.ID,
		)
		if err != nil {
			return fmt.Errorf("insert bookmarks_tag: %w", err)
		}
	}
	return nil
}

// loadTags returns the tags of each bookmark keyed by bookmark ID, in the
// order they were attached.
func loadTags(ctx context.Context, q queryer, bookmarkIDs []string) (map[string][]domain.Tag, error) {
	result := make(map[string][]domain.Tag, len(bookmarkIDs))
	if len(bookmarkIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT bt.bookmark_id, t.id, t.title
		FROM bookmarks_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.bookmark_id IN `+inList+`
		ORDER BY bt.rowid`,
		jsonList(bookmarkIDs))
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookmarkID string
			t          domain.Tag
		)
		if err := rows.Scan(&bookmarkID, &t.ID, &t.Title); err != nil {
			return nil, fmt.Errorf("scan bookmark tag: %w", err)
		}
		result[bookmarkID] = append(result[bookmarkID], t)
	}
	return result, rows.Err()
}
