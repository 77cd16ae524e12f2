// Package search provides full-text search over bookmarks using Bleve.
package search

import (
	"github.com/tagmark/tagmark-server/internal/domain"
)

// Document is the indexed form of a bookmark. Tags are denormalized so a
// single query can match titles, descriptions, URLs and tags together.
type Document struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	CreatedAt int64 `json:"created_at"` // Unix millis
}

// FromBookmark builds the search document for a bookmark.
func FromBookmark(b *domain.Bookmark) *Document {
	return &Document{
		ID:          b.ID,
		OwnerID:     b.UserID,
		Title:       b.Title,
		Description: b.Description,
		URL:         b.URL,
		Tags:        b.TagTitles(),
		CreatedAt:   b.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the mapped field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.URL != "" {
		m["url"] = d.URL
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
