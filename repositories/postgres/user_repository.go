package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/repositories"
	"go.uber.org/zap"
)

const userColumns = `id, user_name, first_name, last_name, email, phone, country, institute, password_hash, role, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.UserName,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Country,
		user.Institute,
		user.PasswordHash,
		int(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("user_name", user.UserName))
	return nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "id", id.String())
	}
	return user, nil
}

// FindByIdentifierOrName retrieves a user by email or user name
func (r *UserRepository) FindByIdentifierOrName(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 OR user_name = $1
		ORDER BY (email = $1) DESC
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		return nil, notFoundOr(err, "identifier", identifier)
	}
	return user, nil
}

// FindByUserName retrieves a user by user name
func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userName))
	if err != nil {
		return nil, notFoundOr(err, "user_name", userName)
	}
	return user, nil
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var role int
	var phone, country, institute sql.NullString

	err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&phone,
		&country,
		&institute,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	user.Phone = phone.String
	user.Country = country.String
	user.Institute = institute.String
	return user, nil
}

func notFoundOr(err error, field, value string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user not found for %s %q: %w", field, value, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get user: %w", err)
}
