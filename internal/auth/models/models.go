// Package models defines the auth subsystem's shared types.
package models

import (
	"time"

	"pressroom/pkg/domain"
)

// Session is the provider-issued credential proving an authenticated
// identity. The token pair lives in browser cookies; the server never
// persists it beyond the request/response cycle.
type Session struct {
	AccessToken  string
	RefreshToken string

	// TokenID is the access token's jti claim, used for revocation
	// checks after sign-out.
	TokenID string

	Subject   domain.UserID
	Email     string
	ExpiresAt time.Time

	// AvatarURL is provider metadata, reconciled into the profile store
	// best-effort on login.
	AvatarURL string
}

// Expired reports whether the access token is past its expiry at ref.
func (s *Session) Expired(ref time.Time) bool {
	return !s.ExpiresAt.IsZero() && ref.After(s.ExpiresAt)
}
