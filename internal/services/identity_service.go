package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"go.uber.org/zap"
)

// IdentityService maps authenticated external principals to internal users
type IdentityService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(users repositories.UserRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Resolve returns the user registered for principal
func (s *IdentityService) Resolve(ctx context.Context, principal string) (*models.User, error) {
	if principal == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByFirebaseUID(ctx, principal)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: principal is not registered", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates the user for principal once. Registering an already linked principal
// returns the existing user with created=false.
func (s *IdentityService) Register(ctx context.Context, principal, username, email string) (*models.User, bool, error) {
	if principal == "" {
		return nil, false, ErrUnauthenticated
	}
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, false, fmt.Errorf("%w: username and email are required", ErrInvalidArgument)
	}

	if existing, err := s.users.GetUserByFirebaseUID(ctx, principal); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	user := &models.User{FirebaseUID: principal, Username: username, Email: email}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("username", username), zap.Error(err))
		return nil, false, err
	}
	if created {
		s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", username))
		return user, true, nil
	}

	// Lost a race on one of the unique keys. A concurrent registration of the
	// same principal is a success; anything else is a taken name or email.
	if existing, err := s.users.GetUserByFirebaseUID(ctx, principal); err == nil {
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("%w: username or email already in use", ErrInvalidArgument)
}

// FindByDisplayName looks up a user by their unique display name
func (s *IdentityService) FindByDisplayName(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	user, err := s.users.GetUserByUsername(ctx, name)
	if err != nil {
		return nil, storageError(err, fmt.Sprintf("user %q", name))
	}
	return user, nil
}
