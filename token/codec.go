// Package token encodes claim sets into signed, expiring HS256 tokens and
// decodes them back.
//
// Verification always checks the signature over the raw header and payload
// segments before any claim is decoded, so a forged payload never reaches
// role logic and a tampered token is reported as such even when it is also
// expired.
package token

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/directory-auth/services"
)

// Version is the token format version written to the "ver" header.
// Decoding rejects any other value.
const Version = 1

const versionHeader = "ver"

var signingMethod = jwt.SigningMethodHS256

// Codec issues and verifies tokens. It holds no keys; callers pass the key
// for the token kind on each call. A Codec is safe for concurrent use.
type Codec struct {
	issuer string
	now    func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithIssuer sets the "iss" claim written on issue and required on verify
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a new token codec
func NewCodec(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs claims with key. IssuedAt and ExpiresAt on the input are
// ignored and recomputed from the clock and ttl.
func (c *Codec) Issue(claims ClaimSet, key []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", services.Newf(services.ErrInvalidTTL, nil, "token ttl must be positive, got %s", ttl)
	}
	if len(key) == 0 {
		return "", services.New(services.ErrInvalidKey, nil)
	}
	// Verify rejects negative roles, so never sign one.
	if claims.Role < 0 {
		return "", services.Newf(services.ErrInvalidRole, nil, "role %d cannot be issued", int(claims.Role))
	}

	// Whole seconds on the wire: floor iat, ceil exp, so exp > iat for any
	// positive ttl.
	now := c.now()
	issuedAt := now.Truncate(time.Second)
	expiresAt := now.Add(ttl)
	if rounded := expiresAt.Truncate(time.Second); !rounded.Equal(expiresAt) {
		expiresAt = rounded.Add(time.Second)
	}

	role := claims.Role
	body := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: &role,
	}

	t := jwt.NewWithClaims(signingMethod, body)
	t.Header[versionHeader] = Version

	signed, err := t.SignedString(key)
	if err != nil {
		return "", services.New(services.ErrInvalidKey, err)
	}
	return signed, nil
}

// Verify checks the token's signature with key, then decodes and validates
// its claims. The signature is the segment after the last '.', computed over
// everything before it, so any altered byte fails as a signature mismatch.
// Failures are, in order: no signature segment, signature mismatch,
// malformed structure or claims, expiry.
func (c *Codec) Verify(tokenString string, key []byte) (ClaimSet, error) {
	if len(key) == 0 {
		return ClaimSet{}, services.New(services.ErrInvalidKey, nil)
	}

	dot := strings.LastIndexByte(tokenString, '.')
	if dot < 0 {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "token has no signature segment")
	}
	signingInput := tokenString[:dot]

	sig, err := base64.RawURLEncoding.Strict().DecodeString(tokenString[dot+1:])
	if err != nil {
		return ClaimSet{}, services.New(services.ErrSignature, nil)
	}
	// HMAC verify compares in constant time.
	if err := signingMethod.Verify(signingInput, sig, key); err != nil {
		return ClaimSet{}, services.New(services.ErrSignature, nil)
	}

	if n := strings.Count(signingInput, ".") + 2; n != 3 {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "token must have 3 segments, got %d", n)
	}

	body := &Claims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, body)
	if err != nil {
		return ClaimSet{}, services.New(services.ErrMalformedToken, err)
	}

	claims, err := c.decode(parsed, body)
	if err != nil {
		return ClaimSet{}, err
	}

	if c.now().After(claims.ExpiresAt) {
		return ClaimSet{}, services.New(services.ErrExpiredToken, nil)
	}
	return claims, nil
}

// decode turns a signature-checked token into a ClaimSet
func (c *Codec) decode(parsed *jwt.Token, body *Claims) (ClaimSet, error) {
	if parsed.Method == nil || parsed.Method.Alg() != signingMethod.Alg() {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "unexpected signing method: %v", parsed.Header["alg"])
	}

	ver, ok := parsed.Header[versionHeader].(float64)
	if !ok || int(ver) != Version || ver != float64(int(ver)) {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "unsupported token version: %v", parsed.Header[versionHeader])
	}

	if body.Subject == "" {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "missing required claim: sub")
	}
	userID, err := uuid.Parse(body.Subject)
	if err != nil {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, err, "invalid sub claim")
	}

	if body.Role == nil {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "missing required claim: role")
	}
	if *body.Role < 0 {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "invalid role claim: %d", int(*body.Role))
	}

	if body.IssuedAt == nil || body.ExpiresAt == nil {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "missing required claim: iat/exp")
	}
	if !body.ExpiresAt.After(body.IssuedAt.Time) {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "exp must be after iat")
	}

	if c.issuer != "" && body.Issuer != c.issuer {
		return ClaimSet{}, services.Newf(services.ErrMalformedToken, nil, "unexpected issuer")
	}

	return ClaimSet{
		UserID:    userID,
		Role:      *body.Role,
		IssuedAt:  body.IssuedAt.Time,
		ExpiresAt: body.ExpiresAt.Time,
	}, nil
}
