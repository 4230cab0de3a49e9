package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/getsentry/sentry-go"
)

// StoreRetryAfter is the Retry-After hint sent when the user store is down
const StoreRetryAfter = 5 * time.Second

// writeServiceError maps service sentinels onto the JSON error envelope.
// Unexpected errors are logged and reported, and the client sees a generic 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteError(w, http.StatusUnauthorized, "account_locked", "your account has been locked, please contact administration")
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteError(w, http.StatusUnauthorized, "account_disabled", "your account has been disabled")
	case errors.Is(err, models.ErrStoreUnavailable):
		pkghttp.WriteServiceUnavailable(w, "service temporarily unavailable, please retry", StoreRetryAfter)
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "user not found")
	case errors.Is(err, models.ErrUsernameExists):
		pkghttp.WriteError(w, http.StatusConflict, "username_exists", "username already exists")
	case errors.Is(err, models.ErrEmailExists):
		pkghttp.WriteError(w, http.StatusConflict, "email_exists", "email already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, badRequestMessage(err))
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "insufficient permissions")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "unauthorized")
	default:
		logger.Error("unhandled service error", slog.Any("error", err))
		sentry.CaptureException(err)
		pkghttp.WriteInternalError(w, "an error occurred while processing the request")
	}
}

// badRequestMessage strips the sentinel prefix so only the detail reaches the client
func badRequestMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), models.ErrBadRequest.Error()+": ")
	if msg == "" || msg == models.ErrBadRequest.Error() {
		return "invalid request"
	}
	return msg
}
