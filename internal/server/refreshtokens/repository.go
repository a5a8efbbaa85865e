// Package refreshtokens stores the opaque refresh tokens the dev backend
// issues. Tokens are single use: the service deletes one before minting its
// successor.
package refreshtokens

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/server/models"
)

// ErrNotFound is returned by Find for unknown, revoked or expired tokens.
var ErrNotFound = errors.New("refresh token not found")

// Repository defines operations for issuing, retrieving and revoking refresh tokens.
type Repository interface {
	// Create stores token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the token record, or ErrNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token and reports whether it was there. Deleting an
	// absent token is not an error. Of several concurrent deletes of one
	// token exactly one reports true.
	Delete(ctx context.Context, token string) (bool, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
