package domain

// Tag is an entry in the shared tag vocabulary.
// Title is the natural key: every bookmark tagged "php" points at the same row.
type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TagRef is the outcome of reconciling one tag title.
// Staged tags have no ID yet and are inserted when the owning bookmark is saved.
type TagRef struct {
	Tag
	Staged bool `json:"staged,omitempty"`
}

// TagCount pairs a tag with the number of bookmarks referencing it.
type TagCount struct {
	Tag
	BookmarkCount int `json:"bookmark_count"`
}
