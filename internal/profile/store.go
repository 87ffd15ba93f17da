package profile

import (
	"context"
	"time"

	"pressroom/pkg/domain"
)

// Store is the profile repository contract. Implementations must honor
// context cancellation: session resolution calls FindByID under a tight
// deadline and treats an overrun as lookup failure.
type Store interface {
	FindByID(ctx context.Context, id domain.UserID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error

	// RecordSignIn reconciles provider metadata after a login: avatar URL
	// (when non-empty) and the last-sign-in timestamp. Callers treat
	// failure as best-effort; it must never abort a login.
	RecordSignIn(ctx context.Context, id domain.UserID, avatarURL string, at time.Time) error
}
