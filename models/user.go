package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role ranks a user's privilege level. Higher values denote broader
// privilege; authorization compares with AtLeast, never equality.
type Role int

const (
	RoleGuest      Role = 0
	RoleUser       Role = 1
	RoleEditor     Role = 2
	RoleAdmin      Role = 3
	RoleOwner      Role = 4
	RoleSuperAdmin Role = 5
)

// DefaultElevatedRole is the threshold for directory-wide reads such as
// listing every user. Services take the effective value from configuration.
const DefaultElevatedRole = RoleAdmin

var roleNames = map[Role]string{
	RoleGuest:      "guest",
	RoleUser:       "user",
	RoleEditor:     "editor",
	RoleAdmin:      "admin",
	RoleOwner:      "owner",
	RoleSuperAdmin: "super_admin",
}

// String returns the role name, or role(N) for values without a name
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// AtLeast reports whether r grants at least the privilege of min
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// User is a directory user record. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserName     string    `json:"user_name" db:"user_name"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Country      string    `json:"country,omitempty" db:"country"`
	Institute    string    `json:"institute,omitempty" db:"institute"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User instance. passwordHash must already be a
// salted digest.
func NewUser(userName, email, passwordHash string, role Role) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		UserName:     userName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
