package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

// errorResponse is the failure envelope: success is always false, the message
// explains the rejection, and errorReport carries an opaque reference for
// server-side failures.
type errorResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ErrorReport any    `json:"errorReport,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the uniform envelope: {"success": false, "message": "<message>"}.
//     Server-side failures additionally carry an errorReport with the request
//     id, so clients can reference the matching log entry without the cause
//     leaking to them.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)

		var report any
		if code == http.StatusInternalServerError {
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				report = map[string]string{"requestId": rid}
			}
		}

		_ = c.JSON(code, errorResponse{Success: false, Message: msg, ErrorReport: report})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes and messages.
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Authorization error. Token Required."
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Authorization error. Invalid Token."
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Authorization error. Insufficient permissions."
	case errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusUnauthorized, "Invalid Username"
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized, "Invalid Password"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "Account Not Found"
	case errors.Is(err, domain.ErrTargetNotProvided):
		return http.StatusBadRequest, "Account Not Provided"
	case errors.Is(err, domain.ErrReservedUsername):
		return http.StatusConflict, "Username is reserved. Use a different username."
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, "Username is already taken"
	case errors.Is(err, domain.ErrLastAdmin):
		return http.StatusConflict, "Cannot remove the last admin account"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Missing or invalid fields"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "Error accessing the account store"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
