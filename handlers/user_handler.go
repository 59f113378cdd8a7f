package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/directory-auth/middleware"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/token"
	"github.com/upb/directory-auth/utils"
	"go.uber.org/zap"
)

// ProfileService reads directory profiles
type ProfileService interface {
	CurrentUser(ctx context.Context, claims token.ClaimSet) (*models.User, error)
	ListUsers(ctx context.Context, claims token.ClaimSet, limit, offset int) ([]*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
}

// UserHandler handles profile requests. Routes are mounted behind
// RequireAuth or RequireRole, which put the verified claims in the request
// context.
type UserHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profiles ProfileService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// HandleMe handles GET /api/v1/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		HandleServiceError(w, r, services.New(services.ErrNoToken, nil), h.logger)
		return
	}

	user, err := h.profiles.CurrentUser(r.Context(), claims)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleList handles GET /api/v1/users?limit=&offset=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		HandleServiceError(w, r, services.New(services.ErrNoToken, nil), h.logger)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	users, err := h.profiles.ListUsers(r.Context(), claims, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, users)
}

// HandleByName handles GET /api/v1/users/by-name/{userName}
func (h *UserHandler) HandleByName(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetByUserName(r.Context(), chi.URLParam(r, "userName"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, services.Newf(services.ErrInvalidInput, nil, "%s must be a non-negative integer", name).
			WithDetail(name, "must be a non-negative integer")
	}
	return v, nil
}
