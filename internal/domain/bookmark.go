package domain

import "strings"

// MaxTitleLength is the longest bookmark title accepted.
const MaxTitleLength = 50

// Bookmark is a saved link owned by a single user.
type Bookmark struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Timestamps

	// Loaded on demand.
	Tags []Tag `json:"tags"`
	User *User `json:"user,omitempty"`
}

// TagTitles returns the titles of the attached tags in their loaded order.
func (b *Bookmark) TagTitles() []string {
	titles := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		titles = append(titles, t.Title)
	}
	return titles
}

// TagString renders the attached tags as a comma-space separated list.
// It is derived from the loaded tags on every call and never stored.
func TagString(b *Bookmark) string {
	if b == nil {
		return ""
	}
	return strings.Join(b.TagTitles(), ", ")
}

// BookmarkSummary is the projection returned by tag browsing.
type BookmarkSummary struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
