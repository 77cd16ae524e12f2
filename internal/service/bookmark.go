package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tagmark/tagmark-server/internal/access"
	"github.com/tagmark/tagmark-server/internal/domain"
	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
	"github.com/tagmark/tagmark-server/internal/id"
	"github.com/tagmark/tagmark-server/internal/markup"
	"github.com/tagmark/tagmark-server/internal/metrics"
	"github.com/tagmark/tagmark-server/internal/store"
	"github.com/tagmark/tagmark-server/internal/tagging"
	"github.com/tagmark/tagmark-server/internal/validation"
)

// Messages shown to clients. Causes are logged, never returned.
const (
	msgNotAuthorized = "You are not authorized to access that location."
	msgSaveFailed    = "The bookmark could not be saved. Please, try again."
	msgDeleteFailed  = "The bookmark could not be deleted. Please, try again."
	msgNoSuchUser    = "The selected user does not exist."
	msgNotFound      = "bookmark not found"
)

// BookmarkService implements the bookmark CRUD operations.
// Every call takes the authenticated actor's user ID; the owner of a new or
// edited bookmark is always the actor, never a submitted value.
type BookmarkService struct {
	store     store.Store
	policy    *access.Policy
	validator *validation.Validator
	renderer  *markup.Renderer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBookmarkService creates a bookmark service. m may be nil.
func NewBookmarkService(
	store store.Store,
	policy *access.Policy,
	renderer *markup.Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BookmarkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookmarkService{
		store:     store,
		policy:    policy,
		validator: validation.New(),
		renderer:  renderer,
		metrics:   m,
		logger:    logger,
	}
}

// CreateBookmarkRequest is the input for adding a bookmark.
// TagString is the comma-separated tag list; nil or empty leaves the new
// bookmark untagged.
type CreateBookmarkRequest struct {
	Title       string  `json:"title" validate:"max=50"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	TagString   *string `json:"tag_string,omitempty"`
}

// UpdateBookmarkRequest is the input for editing a bookmark. Nil fields keep
// their current value. A nil or empty TagString keeps the current tags.
type UpdateBookmarkRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,max=50"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	TagString   *string `json:"tag_string,omitempty"`
}

// BookmarkDetail is a bookmark loaded for display, with its owner, tags
// and rendered description.
type BookmarkDetail struct {
	*domain.Bookmark
	TagString       string `json:"tag_string"`
	DescriptionHTML string `json:"description_html"`
}

// BookmarkForm carries what a client needs to render the add or edit form.
type BookmarkForm struct {
	Bookmark  *domain.Bookmark `json:"bookmark,omitempty"`
	TagString string           `json:"tag_string"`
	Tags      []domain.Tag     `json:"tags"`
}

// List returns the actor's bookmarks, newest first, with tags attached.
func (s *BookmarkService) List(ctx context.Context, actorID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Bookmark], error) {
	if err := s.authorize(ctx, access.ActionIndex, actorID, ""); err != nil {
		return nil, err
	}

	params.Validate()
	result, err := s.store.ListBookmarks(ctx, actorID, params)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return result, nil
}

// View loads a bookmark the actor owns, with its owner and tags.
func (s *BookmarkService) View(ctx context.Context, actorID, bookmarkID string) (*BookmarkDetail, error) {
	if err := s.authorize(ctx, access.ActionView, actorID, bookmarkID); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUser(ctx, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("load bookmark owner: %w", err)
	}
	b.User = owner

	detail := &BookmarkDetail{Bookmark: b, TagString: domain.TagString(b)}
	if s.renderer != nil {
		html, err := s.renderer.Render(b.Description)
		if err != nil {
			s.logger.Warn("failed to render description", "bookmark_id", b.ID, "error", err)
		} else {
			detail.DescriptionHTML = html
		}
	}

	return detail, nil
}

// Create adds a bookmark owned by the actor. New tags named in the tag
// string are inserted in the same transaction as the bookmark.
func (s *BookmarkService) Create(ctx context.Context, actorID string, req CreateBookmarkRequest) (*domain.Bookmark, error) {
	if err := s.authorize(ctx, access.ActionAdd, actorID, ""); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateInput(req); err != nil {
		return nil, err
	}

	tags, err := s.reconcile(ctx, req.TagString)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnerExists(ctx, actorID, req); err != nil {
		return nil, err
	}

	bookmarkID, err := id.Generate("bookmark")
	if err != nil {
		return nil, fmt.Errorf("generate bookmark ID: %w", err)
	}

	b := &domain.Bookmark{
		ID:          bookmarkID,
		UserID:      actorID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
	}
	b.InitTimestamps()

	if err := s.store.CreateBookmark(ctx, b, tags); err != nil {
		return nil, s.saveError(err, req, "create", b.ID)
	}

	s.recordWrite("create", tags)
	s.logger.Info("bookmark created", "bookmark_id", b.ID, "user_id", actorID, "tags", len(b.Tags))

	return b, nil
}

// Update edits a bookmark the actor owns.
func (s *BookmarkService) Update(ctx context.Context, actorID, bookmarkID string, req UpdateBookmarkRequest) (*domain.Bookmark, error) {
	if err := s.authorize(ctx, access.ActionEdit, actorID, bookmarkID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateInput(req); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.URL != nil {
		b.URL = *req.URL
	}
	b.UserID = actorID
	b.Touch()

	tags, err := s.reconcile(ctx, req.TagString)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnerExists(ctx, actorID, req); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBookmark(ctx, b, tags); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgNotFound)
		}
		return nil, s.saveError(err, req, "update", b.ID)
	}

	s.recordWrite("update", tags)
	s.logger.Info("bookmark updated", "bookmark_id", b.ID, "user_id", actorID)

	return b, nil
}

// Delete removes a bookmark the actor owns. Its tag links go with it; the
// tags themselves stay in the vocabulary.
func (s *BookmarkService) Delete(ctx context.Context, actorID, bookmarkID string) error {
	if err := s.authorize(ctx, access.ActionDelete, actorID, bookmarkID); err != nil {
		return err
	}

	if err := s.store.DeleteBookmark(ctx, bookmarkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(msgNotFound)
		}
		s.logger.Error("failed to delete bookmark", "bookmark_id", bookmarkID, "error", err)
		return domainerrors.SaveFailed(msgDeleteFailed, err)
	}

	s.metrics.BookmarkWritten("delete")
	s.logger.Info("bookmark deleted", "bookmark_id", bookmarkID, "user_id", actorID)

	return nil
}

// Tagged returns bookmarks from every user carrying any of the given tag
// titles, each once. With no titles it returns the untagged bookmarks.
func (s *BookmarkService) Tagged(ctx context.Context, actorID string, titles []string) ([]domain.BookmarkSummary, error) {
	if err := s.authorize(ctx, access.ActionTags, actorID, ""); err != nil {
		return nil, err
	}

	bookmarks, err := s.store.FindBookmarksByTags(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("find tagged bookmarks: %w", err)
	}
	return bookmarks, nil
}

// AddForm returns the data for rendering an empty add form.
func (s *BookmarkService) AddForm(ctx context.Context, actorID string) (*BookmarkForm, error) {
	if err := s.authorize(ctx, access.ActionAdd, actorID, ""); err != nil {
		return nil, err
	}

	tags, err := s.vocabulary(ctx)
	if err != nil {
		return nil, err
	}
	return &BookmarkForm{Tags: tags}, nil
}

// EditForm returns a bookmark the actor owns along with the tag vocabulary.
func (s *BookmarkService) EditForm(ctx context.Context, actorID, bookmarkID string) (*BookmarkForm, error) {
	if err := s.authorize(ctx, access.ActionEdit, actorID, bookmarkID); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}

	tags, err := s.vocabulary(ctx)
	if err != nil {
		return nil, err
	}

	return &BookmarkForm{Bookmark: b, TagString: domain.TagString(b), Tags: tags}, nil
}

// authorize runs the access policy and converts its outcome into domain
// errors. A refusal on another user's bookmark returns the same NotFound
// as a missing id so callers cannot tell which ids exist. Forbidden is
// left for refusals that name no bookmark.
func (s *BookmarkService) authorize(ctx context.Context, action access.Action, actorID, bookmarkID string) error {
	if actorID == "" {
		return domainerrors.Unauthorized("authentication required")
	}

	allowed, err := s.policy.Authorize(ctx, action, actorID, bookmarkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(msgNotFound)
		}
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !allowed {
		s.logger.Warn("bookmark access denied",
			"action", string(action),
			"user_id", actorID,
			"bookmark_id", bookmarkID,
		)
		if bookmarkID != "" {
			return domainerrors.NotFound(msgNotFound)
		}
		return domainerrors.Forbidden(msgNotAuthorized)
	}
	return nil
}

func (s *BookmarkService) load(ctx context.Context, bookmarkID string) (*domain.Bookmark, error) {
	b, err := s.store.GetBookmark(ctx, bookmarkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgNotFound)
		}
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

// reconcile resolves a submitted tag string. Nil means "not submitted" and
// leaves the association alone.
func (s *BookmarkService) reconcile(ctx context.Context, tagString *string) ([]domain.TagRef, error) {
	if tagString == nil || *tagString == "" {
		return nil, nil
	}

	refs, err := tagging.Reconcile(ctx, *tagString, s.store)
	if err != nil {
		return nil, fmt.Errorf("reconcile tags: %w", err)
	}
	return refs, nil
}

// checkOwnerExists enforces that user_id names a real user before any
// write is attempted.
func (s *BookmarkService) checkOwnerExists(ctx context.Context, userID string, input any) error {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return validation.Fail(validation.FieldErrors{"user_id": msgNoSuchUser}, input)
	}
	return nil
}

func (s *BookmarkService) saveError(err error, input any, op, bookmarkID string) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return validation.Fail(validation.FieldErrors{"user_id": msgNoSuchUser}, input)
	}
	s.logger.Error("failed to save bookmark", "op", op, "bookmark_id", bookmarkID, "error", err)
	return domainerrors.SaveFailed(msgSaveFailed, err)
}

func (s *BookmarkService) vocabulary(ctx context.Context) ([]domain.Tag, error) {
	counts, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make([]domain.Tag, 0, len(counts))
	for _, c := range counts {
		tags = append(tags, c.Tag)
	}
	return tags, nil
}

func (s *BookmarkService) recordWrite(op string, tags []domain.TagRef) {
	s.metrics.BookmarkWritten(op)

	staged := 0
	for _, t := range tags {
		if t.Staged {
			staged++
		}
	}
	s.metrics.TagsCreated(staged)
}
