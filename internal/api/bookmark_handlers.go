package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/service"
	"github.com/tagmark/tagmark-server/internal/store"
)

func (s *Server) registerBookmarkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/bookmarks",
		Summary:     "List bookmarks",
		Description: "Returns the caller's bookmarks, newest first, with their tags",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "viewBookmark",
		Method:      http.MethodGet,
		Path:        "/bookmarks/view/{id}",
		Summary:     "View bookmark",
		Description: "Returns a bookmark owned by the caller with its owner, tags and rendered description",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleViewBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookmarkForm",
		Method:      http.MethodGet,
		Path:        "/bookmarks/add",
		Summary:     "Add form",
		Description: "Returns the tag vocabulary for rendering the add form",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddForm)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBookmark",
		Method:        http.MethodPost,
		Path:          "/bookmarks/add",
		Summary:       "Add bookmark",
		Description:   "Creates a bookmark owned by the caller. tag_string is a comma-separated tag list.",
		Tags:          []string{"Bookmarks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "editBookmarkForm",
		Method:      http.MethodGet,
		Path:        "/bookmarks/edit/{id}",
		Summary:     "Edit form",
		Description: "Returns a bookmark owned by the caller with its tag string and the tag vocabulary",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditForm)

	for _, method := range []string{http.MethodPatch, http.MethodPost, http.MethodPut} {
		huma.Register(s.api, huma.Operation{
			OperationID: "editBookmark" + methodSuffix(method),
			Method:      method,
			Path:        "/bookmarks/edit/{id}",
			Summary:     "Edit bookmark",
			Description: "Updates a bookmark owned by the caller. Omitted fields keep their value; an empty tag_string keeps the current tags.",
			Tags:        []string{"Bookmarks"},
			Security:    []map[string][]string{{"bearer": {}}},
		}, s.handleEditBookmark)
	}

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		huma.Register(s.api, huma.Operation{
			OperationID: "deleteBookmark" + methodSuffix(method),
			Method:      method,
			Path:        "/bookmarks/delete/{id}",
			Summary:     "Delete bookmark",
			Description: "Deletes a bookmark owned by the caller. Its tags stay in the vocabulary.",
			Tags:        []string{"Bookmarks"},
			Security:    []map[string][]string{{"bearer": {}}},
		}, s.handleDeleteBookmark)
	}
}

// methodSuffix keeps operation IDs unique when one handler serves several
// methods.
func methodSuffix(method string) string {
	switch method {
	case http.MethodPost:
		return "Post"
	case http.MethodPut:
		return "Put"
	case http.MethodPatch:
		return "Patch"
	case http.MethodDelete:
		return "Delete"
	default:
		return method
	}
}

// === DTOs ===

// TagResponse is a tag in API responses.
type TagResponse struct {
	ID    string `json:"id" doc:"Tag ID"`
	Title string `json:"title" doc:"Tag title"`
}

// BookmarkResponse contains bookmark data in API responses.
type BookmarkResponse struct {
	ID          string        `json:"id" doc:"Bookmark ID"`
	UserID      string        `json:"user_id" doc:"Owner user ID"`
	Title       string        `json:"title" doc:"Title"`
	Description string        `json:"description" doc:"Description (Markdown)"`
	URL         string        `json:"url" doc:"Bookmarked URL"`
	TagString   string        `json:"tag_string" doc:"Tags as a comma-separated list"`
	Tags        []TagResponse `json:"tags" doc:"Attached tags"`
	Created     time.Time     `json:"created" doc:"Creation time"`
	Modified    time.Time     `json:"modified" doc:"Last modification time"`
}

// BookmarkDetailResponse is a bookmark with its owner and rendered description.
type BookmarkDetailResponse struct {
	BookmarkResponse
	DescriptionHTML string        `json:"description_html" doc:"Description rendered to sanitized HTML"`
	User            *UserResponse `json:"user,omitempty" doc:"Owner"`
}

// ListBookmarksInput contains pagination parameters.
type ListBookmarksInput struct {
	Authorization string `header:"Authorization"`
	Page          int    `query:"page" minimum:"1" doc:"Page number (default 1)"`
	PageSize      int    `query:"page_size" minimum:"1" maximum:"100" doc:"Items per page (default 20)"`
}

// ListBookmarksResponse is a page of bookmarks.
type ListBookmarksResponse struct {
	Bookmarks []BookmarkResponse `json:"bookmarks" doc:"Bookmarks on this page"`
	Page      int                `json:"page" doc:"Current page"`
	PageSize  int                `json:"page_size" doc:"Items per page"`
	Total     int                `json:"total" doc:"Total bookmarks owned by the caller"`
	HasMore   bool               `json:"has_more" doc:"Whether more pages follow"`
}

// ListBookmarksOutput wraps the list response for Huma.
type ListBookmarksOutput struct {
	Body ListBookmarksResponse
}

// BookmarkIDInput identifies a bookmark.
type BookmarkIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Bookmark ID"`
}

// BookmarkOutput wraps a bookmark for Huma.
type BookmarkOutput struct {
	Body BookmarkResponse
}

// BookmarkDetailOutput wraps a bookmark detail for Huma.
type BookmarkDetailOutput struct {
	Body BookmarkDetailResponse
}

// AddBookmarkRequest is the body for adding a bookmark. There is no user_id
// field: the owner is always the caller, and unknown fields are ignored.
type AddBookmarkRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	Title       string   `json:"title,omitempty" doc:"Title, at most 50 characters"`
	Description string   `json:"description,omitempty" doc:"Description (Markdown)"`
	URL         string   `json:"url,omitempty" doc:"Bookmarked URL"`
	TagString   *string  `json:"tag_string,omitempty" doc:"Comma-separated tag titles"`
}

// AddBookmarkInput wraps the add request for Huma.
type AddBookmarkInput struct {
	Authorization string `header:"Authorization"`
	Body          AddBookmarkRequest
}

// EditBookmarkRequest is the body for editing a bookmark.
type EditBookmarkRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	Title       *string  `json:"title,omitempty" doc:"Title, at most 50 characters"`
	Description *string  `json:"description,omitempty" doc:"Description (Markdown)"`
	URL         *string  `json:"url,omitempty" doc:"Bookmarked URL"`
	TagString   *string  `json:"tag_string,omitempty" doc:"Comma-separated tag titles; empty keeps the current tags"`
}

// EditBookmarkInput wraps the edit request for Huma.
type EditBookmarkInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Bookmark ID"`
	Body          EditBookmarkRequest
}

// BookmarkFormResponse carries what a client needs to render a form.
type BookmarkFormResponse struct {
	Bookmark  *BookmarkResponse `json:"bookmark,omitempty" doc:"Bookmark being edited"`
	TagString string            `json:"tag_string" doc:"Current tags as a comma-separated list"`
	Tags      []TagResponse     `json:"tags" doc:"Tag vocabulary"`
}

// BookmarkFormOutput wraps form data for Huma.
type BookmarkFormOutput struct {
	Body BookmarkFormResponse
}

// === Handlers ===

func (s *Server) handleListBookmarks(ctx context.Context, input *ListBookmarksInput) (*ListBookmarksOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	params := store.DefaultPaginationParams()
	if input.Page > 0 {
		params.Page = input.Page
	}
	if input.PageSize > 0 {
		params.PageSize = input.PageSize
	}

	result, err := s.services.Bookmark.List(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	bookmarks := make([]BookmarkResponse, 0, len(result.Items))
	for _, b := range result.Items {
		bookmarks = append(bookmarks, mapBookmark(b))
	}

	return &ListBookmarksOutput{
		Body: ListBookmarksResponse{
			Bookmarks: bookmarks,
			Page:      result.Page,
			PageSize:  result.PageSize,
			Total:     result.Total,
			HasMore:   result.HasMore,
		},
	}, nil
}

func (s *Server) handleViewBookmark(ctx context.Context, input *BookmarkIDInput) (*BookmarkDetailOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Bookmark.View(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	resp := BookmarkDetailResponse{
		BookmarkResponse: mapBookmark(detail.Bookmark),
		DescriptionHTML:  detail.DescriptionHTML,
	}
	if detail.User != nil {
		user := mapUser(detail.User)
		resp.User = &user
	}

	return &BookmarkDetailOutput{Body: resp}, nil
}

func (s *Server) handleAddForm(ctx context.Context, input *AuthenticatedInput) (*BookmarkFormOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	form, err := s.services.Bookmark.AddForm(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BookmarkFormOutput{Body: mapForm(form)}, nil
}

func (s *Server) handleAddBookmark(ctx context.Context, input *AddBookmarkInput) (*BookmarkOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Bookmark.Create(ctx, userID, service.CreateBookmarkRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		URL:         input.Body.URL,
		TagString:   input.Body.TagString,
	})
	if err != nil {
		return nil, err
	}

	return &BookmarkOutput{Body: mapBookmark(b)}, nil
}

func (s *Server) handleEditForm(ctx context.Context, input *BookmarkIDInput) (*BookmarkFormOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	form, err := s.services.Bookmark.EditForm(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookmarkFormOutput{Body: mapForm(form)}, nil
}

func (s *Server) handleEditBookmark(ctx context.Context, input *EditBookmarkInput) (*BookmarkOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Bookmark.Update(ctx, userID, input.ID, service.UpdateBookmarkRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		URL:         input.Body.URL,
		TagString:   input.Body.TagString,
	})
	if err != nil {
		return nil, err
	}

	return &BookmarkOutput{Body: mapBookmark(b)}, nil
}

func (s *Server) handleDeleteBookmark(ctx context.Context, input *BookmarkIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bookmark.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "The bookmark has been deleted."}}, nil
}

// === Helpers ===

func mapBookmark(b *domain.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		Title:       b.Title,
		Description: b.Description,
		URL:         b.URL,
		TagString:   domain.TagString(b),
		Tags:        mapTags(b.Tags),
		Created:     b.CreatedAt,
		Modified:    b.ModifiedAt,
	}
}

func mapTags(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse{ID: t.ID, Title: t.Title})
	}
	return out
}

func mapForm(form *service.BookmarkForm) BookmarkFormResponse {
	resp := BookmarkFormResponse{
		TagString: form.TagString,
		Tags:      mapTags(form.Tags),
	}
	if form.Bookmark != nil {
		b := mapBookmark(form.Bookmark)
		resp.Bookmark = &b
	}
	return resp
}
