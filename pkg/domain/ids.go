// Package domain holds domain primitives shared across pressroom packages.
// Typed IDs make it a compile error to pass a session subject where a
// profile ID is expected, and Parse* constructors enforce validity at
// trust boundaries.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies the authenticated subject. The identity provider and the
// profile store share this key space: exactly one profile row per subject.
type UserID uuid.UUID

// ParseUserID constructs a UserID from external input.
// Rejects empty, malformed, and nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return UserID{}, fmt.Errorf("user id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id: %w", err)
	}
	if u == uuid.Nil {
		return UserID{}, fmt.Errorf("user id cannot be the nil UUID")
	}
	return UserID(u), nil
}

// String returns the canonical UUID string form.
func (id UserID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is unset.
func (id UserID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
