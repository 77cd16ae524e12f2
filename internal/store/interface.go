// Package store defines the persistence interface for the bookmark server.
package store

import (
	"context"

	"github.com/tagmark/tagmark-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UserExists(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Bookmarks. A nil tags slice leaves the association untouched; an
	// empty one clears it. Staged tags are inserted in the same transaction.
	CreateBookmark(ctx context.Context, b *domain.Bookmark, tags []domain.TagRef) error
	UpdateBookmark(ctx context.Context, b *domain.Bookmark, tags []domain.TagRef) error
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	GetBookmarkOwner(ctx context.Context, id string) (string, error)
	DeleteBookmark(ctx context.Context, id string) error
	ListBookmarks(ctx context.Context, userID string, params PaginationParams) (*PaginatedResult[*domain.Bookmark], error)
	ListBookmarksForUser(ctx context.Context, userID string) ([]*domain.Bookmark, error)
	ListAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error)
	FindBookmarksByTags(ctx context.Context, titles []string) ([]domain.BookmarkSummary, error)

	// Tags
	FindTagsByTitles(ctx context.Context, titles []string) ([]domain.Tag, error)
	GetTagByTitle(ctx context.Context, title string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]domain.TagCount, error)
}

// SearchIndexer is notified after bookmark writes commit so search stays
// in sync without the store depending on the search implementation.
type SearchIndexer interface {
	IndexBookmark(ctx context.Context, b *domain.Bookmark) error
	DeleteBookmark(ctx context.Context, bookmarkID string) error
}

// NoopSearchIndexer is a no-op implementation for tests and disabled search.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBookmark(context.Context, *domain.Bookmark) error { return nil }
func (NoopSearchIndexer) DeleteBookmark(context.Context, string) error          { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
