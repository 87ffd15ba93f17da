// Package profile is the record store mapping an authenticated subject to a
// role and display attributes. Role is the sole authorization input.
package profile

import (
	"time"

	"pressroom/pkg/domain"
)

// Profile augments a session's subject with application-level attributes.
// Invariant: exactly one profile row per subject.
type Profile struct {
	ID        domain.UserID
	Email     string
	Role      domain.Role
	FullName  string
	AvatarURL string

	// SessionMinutes overrides the default session duration when set.
	SessionMinutes *int
	LastSignIn     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
