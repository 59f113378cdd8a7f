// Package auth checks user credentials and authorizes requests from the
// claims carried in access tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/repositories"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/services/secret"
	"github.com/upb/directory-auth/token"
	"go.uber.org/zap"
)

// UserLookup is the directory the verifier reads users from.
// Implementations signal a missing user with repositories.ErrNotFound.
type UserLookup interface {
	FindByIdentifierOrName(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Recorder counts authentication outcomes
type Recorder interface {
	RecordLogin(outcome string)
	RecordTokenCheck(outcome string)
}

// OutcomeSuccess is the outcome label recorded for successful operations.
// Failures are recorded under their error kind.
const OutcomeSuccess = "success"

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string)      {}
func (nopRecorder) RecordTokenCheck(string) {}

// Settings holds the signing keys and lifetimes. Keys are never logged.
type Settings struct {
	AccessKey    []byte
	RefreshKey   []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	ElevatedRole models.Role
}

// Verifier turns an identifier and secret into a token pair
type Verifier struct {
	users    UserLookup
	hasher   *secret.Hasher
	codec    *token.Codec
	settings Settings
	recorder Recorder
	logger   *zap.Logger
}

// NewVerifier creates a new credential verifier. A nil recorder disables
// outcome counting.
func NewVerifier(users UserLookup, hasher *secret.Hasher, codec *token.Codec, settings Settings, recorder Recorder, logger *zap.Logger) *Verifier {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Verifier{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		settings: settings,
		recorder: recorder,
		logger:   logger,
	}
}

// Login authenticates identifier (email or user name) with secret and
// issues an access and a refresh token for the matching user.
//
// Unknown users fail with ErrUserNotFound and wrong secrets with
// ErrInvalidCredentials; callers facing the outside world should not tell
// the two apart. Directory failures, including a cancelled ctx, fail with
// ErrLookup and issue nothing.
func (v *Verifier) Login(ctx context.Context, identifier, secretText string) (*token.Pair, error) {
	pair, err := v.login(ctx, identifier, secretText)
	if err != nil {
		v.recorder.RecordLogin(string(services.KindOf(err)))
		return nil, err
	}
	v.recorder.RecordLogin(OutcomeSuccess)
	return pair, nil
}

func (v *Verifier) login(ctx context.Context, identifier, secretText string) (*token.Pair, error) {
	if strings.TrimSpace(identifier) == "" || secretText == "" {
		return nil, services.Newf(services.ErrInvalidCredentials, nil, "identifier and secret are required")
	}

	if err := ctx.Err(); err != nil {
		return nil, services.New(services.ErrLookup, err)
	}

	user, err := v.users.FindByIdentifierOrName(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			v.logger.Info("login for unknown identifier", zap.String("identifier", identifier))
			return nil, services.New(services.ErrUserNotFound, nil)
		}
		v.logger.Error("user lookup failed", zap.String("identifier", identifier), zap.Error(err))
		return nil, services.New(services.ErrLookup, err)
	}

	ok, err := v.hasher.Verify(secretText, user.PasswordHash)
	if err != nil {
		v.logger.Error("stored secret digest is malformed", zap.String("user_id", user.ID.String()))
		return nil, err
	}
	if !ok {
		v.logger.Info("login with wrong secret", zap.String("user_id", user.ID.String()))
		return nil, services.New(services.ErrInvalidCredentials, nil)
	}

	claims := token.NewClaimSet(user.ID, user.Role)

	access, err := v.codec.Issue(claims, v.settings.AccessKey, v.settings.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := v.codec.Issue(claims, v.settings.RefreshKey, v.settings.RefreshTTL)
	if err != nil {
		return nil, err
	}

	v.logger.Info("login succeeded",
		zap.String("user_id", user.ID.String()),
		zap.Stringer("role", user.Role))

	return token.NewPair(access, refresh, v.settings.AccessTTL), nil
}
