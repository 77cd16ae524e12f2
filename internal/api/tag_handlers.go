package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagmark/tagmark-server/internal/tagging"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/tags",
		Summary:     "List tags",
		Description: "Returns the shared tag vocabulary with the number of bookmarks using each tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTags",
		Method:      http.MethodGet,
		Path:        "/tags/suggest",
		Summary:     "Suggest tags",
		Description: "Returns existing tag titles fuzzily matching a partial query, best first",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSuggestTags)
}

// === DTOs ===

// TagCountResponse is a tag with its usage count.
type TagCountResponse struct {
	ID            string `json:"id" doc:"Tag ID"`
	Title         string `json:"title" doc:"Tag title"`
	BookmarkCount int    `json:"bookmark_count" doc:"Bookmarks carrying this tag"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagCountResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// SuggestTagsInput contains the partial query.
type SuggestTagsInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" maxLength:"100" doc:"Partial tag title"`
	Limit         int    `query:"limit" minimum:"1" maximum:"50" doc:"Max suggestions (default 10)"`
}

// SuggestTagsResponse contains ranked suggestions.
type SuggestTagsResponse struct {
	Query       string               `json:"query" doc:"Original query"`
	Suggestions []tagging.Suggestion `json:"suggestions" doc:"Matching tag titles, best first"`
}

// SuggestTagsOutput wraps the suggestions for Huma.
type SuggestTagsOutput struct {
	Body SuggestTagsResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *AuthenticatedInput) (*ListTagsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]TagCountResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, TagCountResponse{ID: t.ID, Title: t.Title, BookmarkCount: t.BookmarkCount})
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleSuggestTags(ctx context.Context, input *SuggestTagsInput) (*SuggestTagsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	suggestions, err := s.services.Tag.Suggest(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	return &SuggestTagsOutput{
		Body: SuggestTagsResponse{Query: input.Query, Suggestions: suggestions},
	}, nil
}
