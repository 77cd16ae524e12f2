// Package tagging turns free-text tag strings into references against the
// shared tag vocabulary.
package tagging

import (
	"context"
	"fmt"
	"strings"

	"github.com/tagmark/tagmark-server/internal/domain"
)

// TagLookup finds existing tags by exact title.
type TagLookup interface {
	FindTagsByTitles(ctx context.Context, titles []string) ([]domain.Tag, error)
}

// Parse splits a comma-separated tag string into candidate titles.
// Pieces are trimmed, empty pieces dropped, and duplicates removed by exact
// (case-sensitive) match, keeping first-seen order.
func Parse(tagString string) []string {
	pieces := strings.Split(tagString, ",")
	titles := make([]string, 0, len(pieces))
	seen := make(map[string]struct{}, len(pieces))

	for _, piece := range pieces {
		title := strings.TrimSpace(piece)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	return titles
}

// Reconcile resolves a tag string against the existing vocabulary.
//
// Titles that already exist come back as references to those rows, in
// lookup order. The rest are staged for creation in candidate order. Nothing
// is written; staged tags are inserted when the owning bookmark is saved.
// A string with no usable titles yields an empty, non-nil slice.
func Reconcile(ctx context.Context, tagString string, lookup TagLookup) ([]domain.TagRef, error) {
	candidates := Parse(tagString)
	if len(candidates) == 0 {
		return []domain.TagRef{}, nil
	}

	existing, err := lookup.FindTagsByTitles(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("find existing tags: %w", err)
	}

	refs := make([]domain.TagRef, 0, len(candidates))
	found := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if _, dup := found[t.Title]; dup {
			continue
		}
		found[t.Title] = struct{}{}
		refs = append(refs, domain.TagRef{Tag: t})
	}

	for _, title := range candidates {
		if _, ok := found[title]; ok {
			continue
		}
		refs = append(refs, domain.TagRef{Tag: domain.Tag{Title: title}, Staged: true})
	}

	return refs, nil
}
