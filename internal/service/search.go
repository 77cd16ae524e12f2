package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tagmark/tagmark-server/internal/domain"
	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
	"github.com/tagmark/tagmark-server/internal/search"
	"github.com/tagmark/tagmark-server/internal/store"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchService bridges the search index with the data store. The store
// calls it after every bookmark write through store.SearchIndexer.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

var _ store.SearchIndexer = (*SearchService)(nil)

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, store store.Store, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search runs a query over the actor's own bookmarks.
func (s *SearchService) Search(ctx context.Context, actorID string, params search.Params) (*search.Result, error) {
	if actorID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	params.OwnerID = actorID
	params.Query = strings.TrimSpace(params.Query)
	if params.Limit <= 0 || params.Limit > maxSearchLimit {
		params.Limit = defaultSearchLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search bookmarks: %w", err)
	}
	return result, nil
}

// IndexBookmark adds or replaces a bookmark in the index.
func (s *SearchService) IndexBookmark(_ context.Context, b *domain.Bookmark) error {
	if err := s.index.IndexDocument(search.FromBookmark(b)); err != nil {
		return fmt.Errorf("index bookmark: %w", err)
	}

	s.logger.Debug("indexed bookmark", "id", b.ID, "title", b.Title)
	return nil
}

// DeleteBookmark removes a bookmark from the index.
func (s *SearchService) DeleteBookmark(_ context.Context, bookmarkID string) error {
	return s.index.DeleteDocument(bookmarkID)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from the store.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	// A failed list must leave the current index intact.
	bookmarks, err := s.store.ListAllBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}

	docs := make([]*search.Document, 0, len(bookmarks))
	for _, b := range bookmarks {
		docs = append(docs, search.FromBookmark(b))
	}

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index bookmarks: %w", err)
	}

	s.logger.Info("reindex complete", "bookmarks", len(docs))
	return nil
}
