package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the identity client
// return these (optionally wrapped) so upper layers can translate them into
// authorization outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: token or session has expired
// - ErrRevoked: session credential was invalidated by sign-out
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrRevoked     = errors.New("revoked")
	ErrUnavailable = errors.New("unavailable")
)
