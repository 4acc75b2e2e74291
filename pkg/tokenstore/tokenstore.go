// Package tokenstore tracks issued refresh-token identifiers so each one
// can be redeemed exactly once. Rotation works by consuming the presented
// jti and storing the replacement in the same step.
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means the jti was never issued, already consumed, or expired.
var ErrNotFound = errors.New("refresh token not recognized")

type Store interface {
	// Save registers a refresh jti for the user with the given lifetime.
	Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error

	// Consume atomically removes the jti, returning ErrNotFound when it was
	// not live. A second Consume of the same jti always fails.
	Consume(ctx context.Context, userID uuid.UUID, jti string) error

	// Revoke removes a single jti without requiring it to exist.
	Revoke(ctx context.Context, userID uuid.UUID, jti string) error

	// RevokeAll invalidates every live refresh token for the user.
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}
