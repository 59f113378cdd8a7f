package auth

import (
	"strings"

	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/token"
	"go.uber.org/zap"
)

// Authorizer answers identity and role questions from access tokens.
// It is stateless apart from its immutable settings.
type Authorizer struct {
	codec    *token.Codec
	key      []byte
	elevated models.Role
	recorder Recorder
	logger   *zap.Logger
}

// NewAuthorizer creates an authorizer that verifies tokens with the access
// key from settings.
func NewAuthorizer(codec *token.Codec, settings Settings, recorder Recorder, logger *zap.Logger) *Authorizer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Authorizer{
		codec:    codec,
		key:      settings.AccessKey,
		elevated: settings.ElevatedRole,
		recorder: recorder,
		logger:   logger,
	}
}

// ElevatedRole returns the configured elevated threshold
func (a *Authorizer) ElevatedRole() models.Role {
	return a.elevated
}

// IdentityOf verifies raw and returns its claims. Codec errors are returned
// unchanged.
func (a *Authorizer) IdentityOf(raw string) (token.ClaimSet, error) {
	if strings.TrimSpace(raw) == "" {
		a.recorder.RecordTokenCheck(string(services.KindNoToken))
		return token.ClaimSet{}, services.New(services.ErrNoToken, nil)
	}

	claims, err := a.codec.Verify(raw, a.key)
	if err != nil {
		a.recorder.RecordTokenCheck(string(services.KindOf(err)))
		a.logger.Debug("token rejected", zap.String("kind", string(services.KindOf(err))))
		return token.ClaimSet{}, err
	}

	a.recorder.RecordTokenCheck(OutcomeSuccess)
	return claims, nil
}

// RequireRole verifies raw and fails with ErrForbidden when its role is
// below minimum.
func (a *Authorizer) RequireRole(raw string, minimum models.Role) (token.ClaimSet, error) {
	claims, err := a.IdentityOf(raw)
	if err != nil {
		return token.ClaimSet{}, err
	}
	if err := a.Authorize(claims, minimum); err != nil {
		return token.ClaimSet{}, err
	}
	return claims, nil
}

// Authorize checks claims that were already verified against minimum.
// It does not touch the token again, so callers holding claims from
// IdentityOf or RequireRole pay for one verification per request.
func (a *Authorizer) Authorize(claims token.ClaimSet, minimum models.Role) error {
	if claims.Role.AtLeast(minimum) {
		return nil
	}
	a.logger.Info("insufficient role",
		zap.String("user_id", claims.UserID.String()),
		zap.Stringer("role", claims.Role),
		zap.Stringer("required_role", minimum))
	return services.Newf(services.ErrForbidden, nil, "role %s is below required %s", claims.Role, minimum)
}

// AuthorizeElevated is Authorize with the configured elevated threshold
func (a *Authorizer) AuthorizeElevated(claims token.ClaimSet) error {
	return a.Authorize(claims, a.elevated)
}

// RoleOf returns the role carried by raw
func (a *Authorizer) RoleOf(raw string) (models.Role, error) {
	claims, err := a.IdentityOf(raw)
	if err != nil {
		return 0, err
	}
	return claims.Role, nil
}
