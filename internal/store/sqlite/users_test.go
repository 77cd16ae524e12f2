package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tagmark/tagmark-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser(t, s, "user-1", "alice@example.com")

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("PasswordHash: got %q", got.PasswordHash)
	}
	if got.CreatedAt.Unix() != u.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, u.CreatedAt)
	}
	if got.LastLoginAt != nil {
		t.Errorf("LastLoginAt: expected nil, got %v", got.LastLoginAt)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateEmailIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "user-1", "alice@example.com")

	dup := newTestUser("user-2", "ALICE@example.com")
	err := s.CreateUser(context.Background(), dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	makeTestUser(t, s, "user-1", "alice@example.com")

	got, err := s.GetUserByEmail(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want user-1", got.ID)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "user-1", "alice@example.com")

	now := time.Now()
	u.PasswordHash = "rehashed"
	u.LastLoginAt = &now
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.PasswordHash != "rehashed" {
		t.Errorf("PasswordHash: got %q", got.PasswordHash)
	}
	if got.LastLoginAt == nil || got.LastLoginAt.Unix() != now.Unix() {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, now)
	}

	missing := newTestUser("ghost", "ghost@example.com")
	if err := s.UpdateUser(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUserExistsAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountUsers(ctx)
	if err != nil || n != 0 {
		t.Fatalf("CountUsers: got %d, %v", n, err)
	}

	makeTestUser(t, s, "user-1", "alice@example.com")

	exists, err := s.UserExists(ctx, "user-1")
	if err != nil || !exists {
		t.Errorf("UserExists(user-1): got %v, %v", exists, err)
	}
	exists, err = s.UserExists(ctx, "user-2")
	if err != nil || exists {
		t.Errorf("UserExists(user-2): got %v, %v", exists, err)
	}

	n, err = s.CountUsers(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountUsers: got %d, %v", n, err)
	}
}
