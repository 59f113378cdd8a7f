package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/directory-auth/models"
)

// ClaimSet is the identity carried by a token. It is a value type and is
// never modified after construction.
type ClaimSet struct {
	UserID    uuid.UUID
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewClaimSet builds the claims for a user. Timestamps are assigned at issue.
func NewClaimSet(userID uuid.UUID, role models.Role) ClaimSet {
	return ClaimSet{UserID: userID, Role: role}
}

// Claims is the JWT body on the wire
type Claims struct {
	jwt.RegisteredClaims
	Role *models.Role `json:"role"`
}

// Pair is what a successful login hands to the caller
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// NewPair creates a Bearer token pair
func NewPair(access, refresh string, accessTTL time.Duration) *Pair {
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL / time.Second),
	}
}
