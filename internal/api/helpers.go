package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagmark/tagmark-server/internal/auth"
	"github.com/tagmark/tagmark-server/internal/domain"
	"github.com/tagmark/tagmark-server/internal/service"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	user, _, err := s.authenticate(ctx, authHeader)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// authenticate validates the Authorization header and returns the user and
// the token's claims.
func (s *Server) authenticate(ctx context.Context, authHeader string) (*domain.User, *auth.AccessClaims, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return nil, nil, err
	}

	user, claims, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return user, claims, nil
}

func bearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	return parts[1], nil
}

// clientInfo describes the caller for session bookkeeping.
func clientInfo(xForwardedFor, xRealIP, userAgent string) service.ClientInfo {
	return service.ClientInfo{
		IPAddress: forwardedIP(xForwardedFor, xRealIP),
		UserAgent: userAgent,
	}
}

// forwardedIP returns the first address of X-Forwarded-For, else X-Real-IP.
func forwardedIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(xRealIP)
}
