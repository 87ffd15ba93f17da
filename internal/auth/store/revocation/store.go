// Package revocation tracks access tokens invalidated by sign-out. The
// provider owns session lifecycle; this denylist closes the window between a
// sign-out and the access token's natural expiry.
package revocation

import (
	"context"
	"time"
)

// Store is the revocation denylist contract. Entries expire on their own:
// once the underlying token is past its expiry there is nothing left to deny.
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
