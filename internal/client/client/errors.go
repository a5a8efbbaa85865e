package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("backend unreachable")
	// ErrUnauthorized covers wrong credentials and rejected access tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired means the refresh credential was rejected too; the
	// token store has been cleared and the user has to sign in again.
	ErrSessionExpired = fmt.Errorf("session expired: %w", ErrUnauthorized)
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("too many requests")
	ErrServer         = errors.New("server error")
)

// APIError is a non-2xx answer from the backend. It matches the sentinel
// errors above through errors.Is, based on Status.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

func (e *APIError) Is(target error) bool {
	return errors.Is(statusSentinel(e.Status), target)
}

func statusSentinel(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return ErrUnavailable
	case status >= 500:
		return ErrServer
	default:
		return nil
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage turns an error from this package into a line suitable for a
// form or a status bar.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrUnavailable):
		return "The service is unreachable right now. Check your connection and try again."
	case errors.Is(err, ErrConflict):
		return "An account with this email already exists."
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, ErrUnauthorized):
		return "Invalid email or password."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, ErrValidation):
		return "Please check the entered data."
	default:
		return "Something went wrong. Please try again."
	}
}
