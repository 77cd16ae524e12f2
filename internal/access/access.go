// Package access decides which bookmark actions an actor may perform.
package access

import (
	"context"
)

// Action names a bookmark operation subject to authorization.
type Action string

// Bookmark actions.
const (
	ActionIndex  Action = "index"
	ActionAdd    Action = "add"
	ActionTags   Action = "tags"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// openActions need no ownership check. Index is scoped by its own query,
// tags is a cross-user browse.
var openActions = map[Action]bool{
	ActionIndex: true,
	ActionAdd:   true,
	ActionTags:  true,
}

// IsOpen reports whether an action is permitted without a target bookmark.
func (a Action) IsOpen() bool {
	return openActions[a]
}

// OwnerLookup returns the user_id owning a bookmark.
type OwnerLookup interface {
	GetBookmarkOwner(ctx context.Context, bookmarkID string) (string, error)
}

// Fallback is consulted when the actor does not own the bookmark.
type Fallback func(ctx context.Context, action Action, actorID, bookmarkID string) bool

// DenyAll is the default fallback. No role grants access to other users'
// bookmarks.
func DenyAll(context.Context, Action, string, string) bool { return false }

// Policy authorizes bookmark actions by ownership.
type Policy struct {
	owners   OwnerLookup
	fallback Fallback
}

// NewPolicy creates a policy backed by owners. A nil fallback denies.
func NewPolicy(owners OwnerLookup, fallback Fallback) *Policy {
	if fallback == nil {
		fallback = DenyAll
	}
	return &Policy{owners: owners, fallback: fallback}
}

// Authorize reports whether actorID may perform action on bookmarkID.
//
// Open actions are always permitted. Every other action needs a bookmark id
// and is permitted only to the bookmark's owner, otherwise the fallback
// decides. Lookup errors, including not found, are returned to the caller.
func (p *Policy) Authorize(ctx context.Context, action Action, actorID, bookmarkID string) (bool, error) {
	if action.IsOpen() {
		return true, nil
	}
	if bookmarkID == "" || actorID == "" {
		return false, nil
	}

	ownerID, err := p.owners.GetBookmarkOwner(ctx, bookmarkID)
	if err != nil {
		return false, err
	}
	if ownerID == actorID {
		return true, nil
	}
	return p.fallback(ctx, action, actorID, bookmarkID), nil
}
