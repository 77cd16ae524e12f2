package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/store"
)

// bookmarkColumns is the ordered list of columns selected in bookmark queries.
// Must match the scan order in scanBookmark.
const bookmarkColumns = `id, user_id, title, description, url, created, modified`

// scanBookmark scans a sql.Row (or sql.Rows via its Scan method) into a domain.Bookmark.
func scanBookmark(scanner interface{ Scan(dest ...any) error }) (*domain.Bookmark, error) {
	var b domain.Bookmark

	var (
		created  string
		modified string
	)

	err := scanner.Scan(
		&b.ID,
		&b.UserID,
		&b.Title,
		&b.Description,
		&b.URL,
		&created,
		&modified,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(created)
	if err != nil {
		return nil, err
	}
	b.ModifiedAt, err = parseTime(modified)
	if err != nil {
		return nil, err
	}

	b.Tags = []domain.Tag{}
	return &b, nil
}

// CreateBookmark inserts a bookmark together with its tags in one transaction.
// Staged tags are created; existing ones are linked. On success b.Tags holds
// the persisted tags.
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark, tags []domain.TagRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, title, description, url, created, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.Title,
		b.Description,
		b.URL,
		formatTime(b.CreatedAt),
		formatTime(b.ModifiedAt),
	)
	if err != nil {
		return mapWriteError(err)
	}

	resolved := []domain.Tag{}
	if tags != nil {
		resolved, err = s.resolveTags(ctx, tx, tags)
		if err != nil {
			return err
		}
		if err := replaceBookmarkTags(ctx, tx, b.ID, resolved); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	b.Tags = resolved
	s.indexBookmark(ctx, b)
	return nil
}

// UpdateBookmark rewrites a bookmark row and, when tags is non-nil, replaces
// its tag association, all in one transaction.
// Returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) UpdateBookmark(ctx context.Context, b *domain.Bookmark, tags []domain.TagRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookmarks SET
			user_id = ?,
			title = ?,
			description = ?,
			url = ?,
			modified = ?
		WHERE id = ?`,
		b.UserID,
		b.Title,
		b.Description,
		b.URL,
		formatTime(b.ModifiedAt),
		b.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if tags != nil {
		resolved, err := s.resolveTags(ctx, tx, tags)
		if err != nil {
			return err
		}
		if err := replaceBookmarkTags(ctx, tx, b.ID, resolved); err != nil {
			return err
		}
		b.Tags = resolved
	} else {
		current, err := loadTags(ctx, tx, []string{b.ID})
		if err != nil {
			return err
		}
		b.Tags = nonNilTags(current[b.ID])
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.indexBookmark(ctx, b)
	return nil
}

// GetBookmark retrieves a bookmark by ID with its tags attached.
// Returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)

	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tags, err := loadTags(ctx, s.db, []string{b.ID})
	if err != nil {
		return nil, err
	}
	b.Tags = nonNilTags(tags[b.ID])
	return b, nil
}

// GetBookmarkOwner returns the user_id of a bookmark.
// Returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) GetBookmarkOwner(ctx context.Context, id string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM bookmarks WHERE id = ?`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// DeleteBookmark removes a bookmark. Its join rows cascade; tag rows stay.
// Returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteBookmark(ctx, id); err != nil {
		s.logger.Warn("failed to remove bookmark from search index", "bookmark_id", id, "error", err)
	}
	return nil
}

// ListBookmarks returns one page of a user's bookmarks, newest first, with
// tags attached.
func (s *Store) ListBookmarks(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Bookmark], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count bookmarks: %w", err)
	}

	bookmarks, err := s.queryBookmarks(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE user_id = ?
		ORDER BY created DESC, id
		LIMIT ? OFFSET ?`,
		userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, err
	}

	return &store.PaginatedResult[*domain.Bookmark]{
		Items:    bookmarks,
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
		HasMore:  params.Offset()+len(bookmarks) < total,
	}, nil
}

// ListBookmarksForUser returns every bookmark a user owns, oldest first.
func (s *Store) ListBookmarksForUser(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	return s.queryBookmarks(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE user_id = ?
		ORDER BY created, id`,
		userID)
}

// ListAllBookmarks returns every bookmark in the database.
// Used for rebuilding the search index.
func (s *Store) ListAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	return s.queryBookmarks(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY created, id`)
}

// queryBookmarks runs a bookmark select and attaches tags to every row.
func (s *Store) queryBookmarks(ctx context.Context, query string, args ...any) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []*domain.Bookmark{}
	var ids []string
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	tags, err := loadTags(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range bookmarks {
		b.Tags = nonNilTags(tags[b.ID])
	}
	return bookmarks, nil
}

// indexBookmark pushes a committed bookmark to the search index. Index
// failures are logged and never fail the write.
func (s *Store) indexBookmark(ctx context.Context, b *domain.Bookmark) {
	if err := s.searchIndexer.IndexBookmark(ctx, b); err != nil {
		s.logger.Warn("failed to index bookmark for search", "bookmark_id", b.ID, "error", err)
	}
}

// mapWriteError converts constraint failures on bookmark writes into store errors.
func mapWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithCause(err)
	case isForeignKeyViolation(err):
		return store.ErrInvalidReference.WithMessage("bookmark owner does not exist").WithCause(err)
	default:
		return fmt.Errorf("write bookmark: %w", err)
	}
}

func nonNilTags(tags []domain.Tag) []domain.Tag {
	if tags == nil {
		return []domain.Tag{}
	}
	return tags
}
