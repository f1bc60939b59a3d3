package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Pending
// notifications travel with it so a failed login still shows its toast.
type errorResponse struct {
	Error         string                `json:"error"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		resp := errorResponse{Error: msg}
		if v := middleware.VisitorFrom(c); v != nil {
			resp.Notifications = v.Inbox.Drain()
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrApprovalPending):
		return http.StatusForbidden, "Your account is pending approval from an administrator."
	case errors.Is(err, domain.ErrApprovalDenied):
		return http.StatusForbidden, "Your account registration was declined."
	case errors.Is(err, domain.ErrUnrecognizedValue):
		log.Warn().Err(err).Str("path", c.Path()).Msg("account row holds an unrecognized value")
		return http.StatusForbidden, "Could not load your user profile."
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "user profile not found"
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, domain.ErrIdentityExists):
		return http.StatusConflict, "username or email already in use"
	case errors.Is(err, domain.ErrBackendUnavailable):
		log.Error().Err(err).Str("path", c.Path()).Msg("backend unavailable")
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
