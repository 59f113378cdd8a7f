// Package users serves directory profiles to authenticated callers.
package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/repositories"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/services/auth"
	"github.com/upb/directory-auth/token"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Service handles profile reads
type Service struct {
	repo       repositories.UserRepository
	authorizer *auth.Authorizer
	logger     *zap.Logger
}

// NewService creates a new users service
func NewService(repo repositories.UserRepository, authorizer *auth.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CurrentUser returns the profile of the user the verified claims belong to
func (s *Service) CurrentUser(ctx context.Context, claims token.ClaimSet) (*models.User, error) {
	return s.Get(ctx, claims.UserID)
}

// Get returns the profile with the given id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, zap.String("user_id", id.String()))
	}
	return user, nil
}

// ListUsers returns a page of profiles. The verified claims must carry at
// least the elevated role.
func (s *Service) ListUsers(ctx context.Context, claims token.ClaimSet, limit, offset int) ([]*models.User, error) {
	if err := s.authorizer.AuthorizeElevated(claims); err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.lookupError(err)
	}

	s.logger.Debug("listed users",
		zap.String("requested_by", claims.UserID.String()),
		zap.Int("count", len(users)))

	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// GetByUserName returns the profile with the given user name
func (s *Service) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if userName == "" {
		return nil, services.Newf(services.ErrInvalidInput, nil, "user name is required")
	}

	user, err := s.repo.FindByUserName(ctx, userName)
	if err != nil {
		return nil, s.lookupError(err, zap.String("user_name", userName))
	}
	return user, nil
}

func (s *Service) lookupError(err error, fields ...zap.Field) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.New(services.ErrUserNotFound, nil)
	}
	s.logger.Error("user lookup failed", append(fields, zap.Error(err))...)
	return services.New(services.ErrLookup, err)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
