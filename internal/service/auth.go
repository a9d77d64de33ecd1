package service

import (
	"context"
	"fmt"

	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/telemetry"
)

// AuthService resolves API credentials to users
type AuthService struct {
	users *db.UserRepository
}

// NewAuthService creates a new auth service
func NewAuthService(users *db.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Authenticate returns the user owning the given API key. Returns
// ErrUnauthorized when the key is blank or matches nobody.
func (s *AuthService) Authenticate(ctx context.Context, apiKey string) (*models.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.authenticate")
	defer span.End()

	if apiKey == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	return user, nil
}
