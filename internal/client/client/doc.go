// Package client is the API gateway of the terminal client.
//
// HTTPClient sends JSON requests to the platform REST API. Credentials are
// attached by a RoundTripper decorator that reads them from the token store
// and, when the backend answers 401, exchanges the refresh token once and
// replays the request once. If the refresh token is rejected as well, the
// store is cleared and the call fails with ErrSessionExpired.
//
// Non-2xx answers are returned as *APIError, which matches the package
// sentinel errors (ErrUnauthorized, ErrValidation, ErrConflict, ...) via
// errors.Is. Failures to reach the backend match ErrUnavailable.
package client
