package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/http/response"
)

// TaggedResponse lists the bookmarks carrying any of the requested tags.
type TaggedResponse struct {
	Tags      []string                 `json:"tags"`
	Bookmarks []domain.BookmarkSummary `json:"bookmarks"`
}

// registerTaggedRoutes mounts the tag browse. Each path segment after
// /bookmarks/tagged is one tag title, which huma's path templates cannot
// express, so these are plain chi routes.
func (s *Server) registerTaggedRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/bookmarks/tagged", s.handleTagged)
		r.Get("/bookmarks/tagged/*", s.handleTagged)
	})
}

func (s *Server) handleTagged(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// chi matches on RawPath when it is set, leaving the wildcard escaped.
	tags := taggedTitles(chi.URLParam(r, "*"), r.URL.RawPath != "")

	bookmarks, err := s.services.Bookmark.Tagged(ctx, getUserID(ctx), tags)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if bookmarks == nil {
		bookmarks = []domain.BookmarkSummary{}
	}

	response.Success(w, TaggedResponse{Tags: tags, Bookmarks: bookmarks}, s.logger)
}

// taggedTitles splits the wildcard path into tag titles. Empty segments
// are dropped, so /bookmarks/tagged/ lists untagged bookmarks. Segments are
// unescaped only when rest is still escaped, so each title is decoded once
// and an encoded slash stays inside its title.
func taggedTitles(rest string, escaped bool) []string {
	tags := []string{}
	for segment := range strings.SplitSeq(rest, "/") {
		if escaped {
			if decoded, err := url.PathUnescape(segment); err == nil {
				segment = decoded
			}
		}
		if segment != "" {
			tags = append(tags, segment)
		}
	}
	return tags
}
