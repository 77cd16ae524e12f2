package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/store"
	"github.com/tagmark/tagmark-server/internal/tagging"
)

// DefaultSuggestLimit caps tag suggestions when the caller gives no limit.
const DefaultSuggestLimit = 10

// TagService serves the shared tag vocabulary. Tags have no owner.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns every tag with the number of bookmarks using it,
// including tags no bookmark references anymore.
func (s *TagService) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Suggest returns existing tag titles that fuzzily match query.
func (s *TagService) Suggest(ctx context.Context, query string, limit int) ([]tagging.Suggestion, error) {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	titles := make([]string, len(tags))
	for i, t := range tags {
		titles[i] = t.Title
	}

	return tagging.Suggest(query, titles, limit), nil
}
