package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/directory-auth/internal/observability"
	"github.com/upb/directory-auth/middleware"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/token"
	"github.com/upb/directory-auth/utils"
	"go.uber.org/zap"
)

// LoginService authenticates credentials
type LoginService interface {
	Login(ctx context.Context, identifier, secret string) (*token.Pair, error)
}

// RoleReader reads the role carried by an access token
type RoleReader interface {
	RoleOf(raw string) (models.Role, error)
}

// LoginRequest is the body of POST /auth/login. Identifier is an email or
// a user name.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Secret     string `json:"secret" validate:"required,max=72"`
}

// RoleResponse is the body of GET /auth/role
type RoleResponse struct {
	Role int    `json:"role"`
	Name string `json:"name"`
}

// AuthHandler handles login and role lookups
type AuthHandler struct {
	logins       LoginService
	roles        RoleReader
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. When secureCookie is set the
// auth_token cookie is only sent over TLS.
func NewAuthHandler(logins LoginService, roles RoleReader, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		logins:       logins,
		roles:        roles,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, logger)
		return
	}

	pair, err := h.logins.Login(r.Context(), req.Identifier, req.Secret)
	if err != nil {
		// Unknown users and wrong secrets get the same answer.
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			_ = utils.WriteUnauthorized(w, string(services.KindInvalidCredentials), "Invalid credentials")
			return
		}
		HandleServiceError(w, r, err, logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthTokenCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if err := utils.WriteOK(w, pair); err != nil {
		logger.Error("failed to write login response", zap.Error(err))
	}
}

// HandleRole handles GET /api/v1/auth/role
func (h *AuthHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.RoleOf(middleware.ExtractToken(r))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, RoleResponse{Role: int(role), Name: role.String()})
}
