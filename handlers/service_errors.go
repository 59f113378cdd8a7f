package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/directory-auth/internal/observability"
	"github.com/upb/directory-auth/middleware"
	"github.com/upb/directory-auth/services"
	"github.com/upb/directory-auth/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal and
// unknown errors are logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}
	logger = observability.LoggerFromContext(r.Context(), logger)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, "User not found")

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, validationMessage(err), services.GetErrorDetails(err))

	case services.IsUnauthorizedError(err), services.IsForbiddenError(err):
		writeErr = middleware.WriteAuthError(w, err)

	case services.IsExternalError(err):
		logger.Error("directory unavailable", zap.Error(err))
		writeErr = utils.WriteServiceUnavailable(w, "Directory temporarily unavailable")

	case services.IsInternalError(err):
		logger.Error("internal server error",
			zap.String("kind", string(services.KindOf(err))),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

func validationMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "Invalid input"
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		details := make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
