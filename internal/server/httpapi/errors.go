package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/cashbackhub/internal/server/users"
)

// DomainError is the JSON error envelope every failed request answers with.
type DomainError struct {
	HTTPStatus int
	Code       string
	Message    string
	Details    map[string]any
	cause      error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return e.Code + ": " + e.Message
}

func (e *DomainError) Unwrap() error { return e.cause }

func newError(status int, code, message string) *DomainError {
	return &DomainError{HTTPStatus: status, Code: code, Message: message}
}

func badRequest(message string) *DomainError {
	return newError(http.StatusBadRequest, "bad_request", message)
}

func unauthorized(message string) *DomainError {
	return newError(http.StatusUnauthorized, "unauthorized", message)
}

// toDomainError maps service errors onto statuses. A wrong current password
// is 422 rather than 401 so clients do not mistake it for an expired token.
func toDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return newError(fe.Code, codeForStatus(fe.Code), fe.Message)
	}

	var ve *users.ValidationError
	if errors.As(err, &ve) {
		details := make(map[string]any, len(ve.Fields))
		for k, v := range ve.Fields {
			details[k] = v
		}
		return &DomainError{
			HTTPStatus: http.StatusUnprocessableEntity,
			Code:       "validation_failed",
			Message:    "Some fields are invalid.",
			Details:    details,
			cause:      err,
		}
	}

	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		return newError(http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, users.ErrInvalidAccessToken):
		return unauthorized("access token is invalid or expired")
	case errors.Is(err, users.ErrInvalidRefreshToken):
		return unauthorized("refresh token is invalid or expired")
	case errors.Is(err, users.ErrIncorrectPassword):
		return newError(http.StatusUnprocessableEntity, "incorrect_password", "The current password is incorrect.")
	case errors.Is(err, users.ErrEmailTaken):
		return newError(http.StatusConflict, "email_taken", "An account with this email already exists.")
	case errors.Is(err, users.ErrInvalidVerification):
		return badRequest("verification link is invalid or already used")
	case errors.Is(err, users.ErrForbidden):
		return newError(http.StatusForbidden, "forbidden", "You do not have access to this page.")
	case errors.Is(err, users.ErrNotFound):
		return newError(http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, context.DeadlineExceeded):
		return &DomainError{HTTPStatus: http.StatusGatewayTimeout, Code: "timeout", Message: "request timed out", cause: err}
	default:
		return &DomainError{HTTPStatus: http.StatusInternalServerError, Code: "internal", Message: "internal error", cause: err}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= 500 {
		return "internal"
	}
	return "error"
}
