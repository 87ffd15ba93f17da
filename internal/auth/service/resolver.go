// Package service holds the session resolution logic shared by every layer
// that needs to know who is asking: the edge gateway, server handlers, and
// the client auth state all call Resolve independently. Each call is
// self-contained; nothing is cached across requests.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pressroom/internal/auth/models"
	"pressroom/internal/platform/metrics"
	"pressroom/internal/profile"
	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

// SessionSource produces the current session for one request. identity.Bound
// satisfies it; tests substitute fakes.
type SessionSource interface {
	Session(ctx context.Context) (*models.Session, error)
}

// ProfileStore is the slice of the profile repository the resolver needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id domain.UserID) (*profile.Profile, error)
}

// RevocationStore answers whether a token was invalidated by sign-out.
type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Resolution is the outcome of one session resolution.
//
// Session == nil means no credential: not an error, routed to login on
// protected paths. Err != nil means a lookup could not be completed; callers
// gating on role must fail closed.
type Resolution struct {
	Session *models.Session
	Profile *profile.Profile
	Err     error
}

// Resolver derives {session, profile} from request-scoped credentials.
type Resolver struct {
	profiles ProfileStore
	revoked  RevocationStore
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewResolver builds a Resolver. timeout bounds the profile lookup.
func NewResolver(profiles ProfileStore, revoked RevocationStore, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		profiles: profiles,
		revoked:  revoked,
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve produces the current session and profile. Safe to call multiple
// times per request; every call re-derives the decision inputs.
func (r *Resolver) Resolve(ctx context.Context, src SessionSource) Resolution {
	sess, err := src.Session(ctx)
	if err != nil {
		return Resolution{Err: err}
	}
	if sess == nil {
		return Resolution{}
	}

	revoked, err := r.revoked.IsRevoked(ctx, sess.TokenID)
	if err != nil {
		// An unanswerable revocation check cannot be allowed to pass a
		// credential through; surface it so gates fail closed.
		r.logger.ErrorContext(ctx, "revocation check failed", "error", err)
		return Resolution{Err: err}
	}
	if revoked {
		return Resolution{}
	}

	prof, err := r.fetchProfile(ctx, sess.Subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// A session without a profile row is a fact, not a failure;
			// it simply carries no role.
			return Resolution{Session: sess}
		}
		return Resolution{Session: sess, Err: err}
	}
	return Resolution{Session: sess, Profile: prof}
}

// fetchProfile looks up the profile under the resolver deadline. The lookup
// races the deadline; a deadline win abandons the lookup rather than letting
// an unresponsive store block perceived readiness.
func (r *Resolver) fetchProfile(ctx context.Context, subject domain.UserID) (*profile.Profile, error) {
	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		prof *profile.Profile
		err  error
	}
	started := time.Now()
	ch := make(chan result, 1)
	go func() {
		prof, err := r.profiles.FindByID(fctx, subject)
		ch <- result{prof, err}
	}()

	select {
	case res := <-ch:
		if r.metrics != nil {
			r.metrics.ProfileFetchSeconds.Observe(time.Since(started).Seconds())
		}
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return nil, r.timedOut(ctx, subject, res.err)
		}
		return res.prof, res.err
	case <-fctx.Done():
		return nil, r.timedOut(ctx, subject, fctx.Err())
	}
}

func (r *Resolver) timedOut(ctx context.Context, subject domain.UserID, cause error) error {
	if r.metrics != nil {
		r.metrics.ProfileFetchTimeouts.Inc()
	}
	r.logger.WarnContext(ctx, "profile fetch abandoned at deadline",
		"subject", subject.String(),
		"timeout", r.timeout,
	)
	return cause
}
