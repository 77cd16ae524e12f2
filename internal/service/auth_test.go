package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tagmark/tagmark-server/internal/auth"
	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
)

func TestAuthService_Register_FirstUserOnly(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "first@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	_, err = env.auth.Register(ctx, RegisterRequest{Email: "second@example.com", Password: "password123"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestAuthService_Register_Open(t *testing.T) {
	env := setupTest(t)
	env.auth.openRegistration = true
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterRequest{Email: "b@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterRequest{Email: "A@example.com", Password: "password123"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "password123"}},
		{"bad email", RegisterRequest{Email: "nope", Password: "password123"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req, ClientInfo{})
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.CreateUser(ctx, "user@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, LoginRequest{
			Email:    "user@example.com",
			Password: "correct-horse",
			Client:   ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"},
		})
		require.NoError(t, err)
		assert.NotNil(t, resp.User.LastLoginAt)

		session, err := env.store.GetSession(ctx, resp.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", session.IPAddress)
		assert.Equal(t, "test", session.UserAgent)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Email: "user@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})
}

func TestAuthService_Login_UpgradesBcrypt(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	u := env.createUser(t, "user-legacy", "legacy@example.com")
	u.PasswordHash = "$2y$" + string(legacy[4:])
	require.NoError(t, env.store.UpdateUser(ctx, u))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "legacy@example.com", Password: "legacy-pass"})
	require.NoError(t, err)

	stored, err := env.store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash), "hash should be upgraded to argon2id")

	valid, err := auth.VerifyPassword(stored.PasswordHash, "legacy-pass")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	first, err := env.auth.Register(ctx, RegisterRequest{Email: "r@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)

	second, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired, "old refresh token must be rejected")
}

func TestAuthService_LogoutRevokesAccessToken(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{Email: "l@example.com", Password: "password123"}, ClientInfo{})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.SessionID, claims.SessionID)

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))
	require.NoError(t, env.auth.Logout(ctx, resp.SessionID), "second logout is a no-op")

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	assert.Error(t, err)
}

func TestAuthService_VerifyAccessToken_Garbage(t *testing.T) {
	env := setupTest(t)

	_, _, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assert.Error(t, err)
}
