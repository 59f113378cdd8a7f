package middleware

import (
	"net/http"
	"strings"

	"github.com/upb/directory-auth/internal/observability"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/token"
	"github.com/upb/directory-auth/utils"
	"go.uber.org/zap"
)

// TokenAuthorizer verifies access tokens and checks roles
type TokenAuthorizer interface {
	IdentityOf(raw string) (token.ClaimSet, error)
	RequireRole(raw string, minimum models.Role) (token.ClaimSet, error)
	Authorize(claims token.ClaimSet, minimum models.Role) error
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	authorizer TokenAuthorizer
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authorizer TokenAuthorizer, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authorizer: authorizer,
		logger:     logger,
	}
}

// AuthTokenCookieName is the cookie checked when no Authorization header is sent
const AuthTokenCookieName = "auth_token"

var tokenErrorMessages = map[services.ErrorKind]string{
	services.KindNoToken:            "Missing or invalid authorization",
	services.KindSignature:          "Invalid token",
	services.KindMalformedToken:     "Malformed token",
	services.KindExpiredToken:       "Token expired",
	services.KindInvalidCredentials: "Invalid credentials",
}

// WriteAuthError writes the response for an authentication or authorization
// failure. Unauthorized kinds get a 401 whose error code is the kind.
// Anything else is treated as a server fault.
func WriteAuthError(w http.ResponseWriter, err error) error {
	switch {
	case services.IsUnauthorizedError(err):
		kind := services.KindOf(err)
		return utils.WriteUnauthorized(w, string(kind), tokenErrorMessages[kind])
	case services.IsForbiddenError(err):
		return utils.WriteForbidden(w, "Insufficient permissions")
	default:
		return utils.WriteInternalServerError(w, "An internal error occurred")
	}
}

// RequireAuth is a middleware that requires a valid access token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx, m.logger)

		raw := ExtractToken(r)
		claims, err := m.authorizer.IdentityOf(raw)
		if err != nil {
			m.logFailure(logger, "token validation failed", err)
			_ = WriteAuthError(w, err)
			return
		}

		ctx = WithClaims(ctx, claims)

		logger.Debug("authentication successful",
			zap.String("user_id", claims.UserID.String()),
			zap.Stringer("role", claims.Role))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is a middleware that requires at least the given role.
// Behind RequireAuth it checks the claims already in the context; mounted
// on its own it verifies the request token and stores the claims itself.
func (m *AuthMiddleware) RequireRole(minimum models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := observability.LoggerFromContext(ctx, m.logger)

			claims, ok := GetClaimsFromContext(ctx)
			var err error
			if ok {
				err = m.authorizer.Authorize(claims, minimum)
			} else {
				claims, err = m.authorizer.RequireRole(ExtractToken(r), minimum)
			}
			if err != nil {
				m.logFailure(logger, "role check failed", err, zap.Stringer("required_role", minimum))
				_ = WriteAuthError(w, err)
				return
			}

			logger.Debug("role check passed",
				zap.String("user_id", claims.UserID.String()),
				zap.Stringer("required_role", minimum))

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

func (m *AuthMiddleware) logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", string(services.KindOf(err))))
	if services.IsInternalError(err) || services.GetErrorType(err) == "" {
		logger.Error(msg, append(fields, zap.Error(err))...)
		return
	}
	logger.Warn(msg, fields...)
}

// ExtractToken extracts the token from the Authorization header
// ("Bearer TOKEN") or the auth_token cookie. The header takes precedence.
func ExtractToken(r *http.Request) string {
	if raw := extractBearerToken(r); raw != "" {
		return raw
	}
	if cookie, err := r.Cookie(AuthTokenCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
