package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/markup"
	"github.com/tagmark/tagmark-server/internal/netscape"
	"github.com/tagmark/tagmark-server/internal/store"
)

// TransferService imports and exports bookmarks as Netscape bookmark files.
type TransferService struct {
	store     store.Store
	bookmarks *BookmarkService
	logger    *slog.Logger
}

// NewTransferService creates a new import/export service.
func NewTransferService(store store.Store, bookmarks *BookmarkService, logger *slog.Logger) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferService{
		store:     store,
		bookmarks: bookmarks,
		logger:    logger,
	}
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Import creates a bookmark owned by the actor for every link in a
// Netscape bookmark file. Titles are truncated to fit, and entries that
// fail to save are counted without aborting the rest.
func (s *TransferService) Import(ctx context.Context, actorID string, r io.Reader) (*ImportResult, error) {
	entries, err := netscape.Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, e := range entries {
		req := CreateBookmarkRequest{
			Title:       truncateRunes(markup.StripTags(e.Title), domain.MaxTitleLength),
			Description: e.Description,
			URL:         e.URL,
		}
		if len(e.Tags) > 0 {
			tagString := strings.Join(e.Tags, ", ")
			req.TagString = &tagString
		}

		if _, err := s.bookmarks.Create(ctx, actorID, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.URL, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("bookmarks imported",
		"user_id", actorID,
		"imported", result.Imported,
		"failed", result.Failed,
	)

	return result, nil
}

// Export writes the actor's bookmarks as a Netscape bookmark file.
func (s *TransferService) Export(ctx context.Context, actorID string, w io.Writer) error {
	bookmarks, err := s.store.ListBookmarksForUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}

	entries := make([]netscape.Entry, 0, len(bookmarks))
	for _, b := range bookmarks {
		entries = append(entries, netscape.Entry{
			Title:       b.Title,
			URL:         b.URL,
			Description: b.Description,
			Tags:        b.TagTitles(),
			AddedAt:     b.CreatedAt,
		})
	}

	return netscape.Write(w, entries)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
