// Package secret hashes and verifies user secrets with bcrypt.
package secret

import (
	"errors"

	"github.com/upb/directory-auth/services"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = bcrypt.DefaultCost

	// bcrypt only reads the first 72 bytes of input.
	maxSecretBytes = 72
)

// Hasher produces and checks salted secret digests. It is immutable and safe
// for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher for the given work factor. The factor is
// checked on every Hash call.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Cost returns the configured work factor
func (h *Hasher) Cost() int {
	return h.cost
}

// ValidCost reports whether cost is within bcrypt's supported range
func ValidCost(cost int) bool {
	return cost >= MinCost && cost <= MaxCost
}

// Hash returns a salted digest of secret. Each call uses a fresh salt, so
// the same secret hashes to different digests.
func (h *Hasher) Hash(secret string) (string, error) {
	if !ValidCost(h.cost) {
		return "", services.Newf(services.ErrHashing, nil, "cost %d outside supported range [%d, %d]", h.cost, MinCost, MaxCost)
	}
	if len(secret) > maxSecretBytes {
		return "", services.Newf(services.ErrHashing, nil, "secret exceeds %d bytes", maxSecretBytes)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", services.New(services.ErrHashing, err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. A mismatch is (false, nil);
// only a digest that cannot be parsed returns an error. Secrets longer than
// bcrypt's input limit never match, since bcrypt would compare only their
// prefix.
func (h *Hasher) Verify(secret, digest string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(digest)); err != nil {
		return false, services.New(services.ErrMalformedHash, err)
	}
	if len(secret) > maxSecretBytes {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		// bcrypt errors describe the digest shape only, never its content.
		return false, services.New(services.ErrMalformedHash, err)
	}
}
