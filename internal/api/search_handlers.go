package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagmark/tagmark-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBookmarks",
		Method:      http.MethodGet,
		Path:        "/bookmarks/search",
		Summary:     "Search bookmarks",
		Description: "Full-text search over the caller's bookmarks (title, description, url and tags)",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching bookmarks.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" maxLength:"200" doc:"Search query; empty matches everything"`
	Tags          string `query:"tags" maxLength:"200" doc:"Comma-separated tags every hit must carry"`
	Sort          string `query:"sort" enum:"relevance,recent" doc:"Sort order (default relevance)"`
	Limit         int    `query:"limit" minimum:"1" maximum:"100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
	Facets        bool   `query:"facets" doc:"Include tag facets in response"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("Search is disabled")
	}

	params := search.Params{
		Query:         input.Query,
		Limit:         input.Limit,
		Offset:        input.Offset,
		SortBy:        input.Sort,
		IncludeFacets: input.Facets,
		Highlight:     true,
	}
	for t := range strings.SplitSeq(input.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			params.Tags = append(params.Tags, t)
		}
	}

	s.logger.Debug("Search request received", "query", input.Query, "limit", input.Limit)

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: result}, nil
}
