package api

import (
	"github.com/tagmark/tagmark-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Session  *service.SessionService
	Bookmark *service.BookmarkService
	Tag      *service.TagService
	Search   *service.SearchService // nil when search is disabled
	Transfer *service.TransferService
}
