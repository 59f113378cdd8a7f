package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/directory-auth/models"
)

// ErrNotFound is returned (possibly wrapped) by lookups that match no record
var ErrNotFound = errors.New("record not found")

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByIdentifierOrName retrieves a user whose email or user name
	// equals identifier. An email match wins over a user name match.
	FindByIdentifierOrName(ctx context.Context, identifier string) (*models.User, error)

	// FindByUserName retrieves a user by user name
	FindByUserName(ctx context.Context, userName string) (*models.User, error)

	// List retrieves users with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
}
