// Package state maintains the browser-facing view of the authenticated user:
// a single {user, loading} cell per mount, refreshed on load and on every
// auth-state-change event, with role-check helpers for conditional rendering.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pressroom/internal/auth/models"
	"pressroom/internal/profile"
	"pressroom/pkg/domain"
)

// SessionSource produces the current session. identity.Bound satisfies it.
type SessionSource interface {
	Session(ctx context.Context) (*models.Session, error)
}

// ProfileStore is the slice of the profile repository the state needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id domain.UserID) (*profile.Profile, error)
}

// Option configures a State.
type Option func(*State)

// WithTimeout overrides the profile fetch deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *State) { s.timeout = d }
}

// WithSignOut installs the remote sign-out call.
func WithSignOut(fn func(context.Context) error) Option {
	return func(s *State) { s.remoteSignOut = fn }
}

// State is the auth cell. It begins in {user: nil, loading: true}, settles
// after the initial check, and re-settles after every event. All writes are
// ordered by a generation counter: whichever refresh started last wins, and
// a slow fetch that lost the race can never resurrect stale state.
type State struct {
	mu      sync.Mutex
	user    *profile.Profile
	loading bool
	gen     uint64
	cancel  func()

	source        SessionSource
	profiles      ProfileStore
	timeout       time.Duration
	remoteSignOut func(context.Context) error
	logger        *slog.Logger
}

// New constructs a State in the loading position. Call Start to resolve it.
func New(source SessionSource, profiles ProfileStore, logger *slog.Logger, opts ...Option) *State {
	s := &State{
		loading:  true,
		source:   source,
		profiles: profiles,
		timeout:  time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to bus and then runs the initial session check. The
// subscription is established first so an event firing mid-check is not
// lost; ordering between the two is settled by the generation counter.
func (s *State) Start(ctx context.Context, bus *Bus) {
	s.mu.Lock()
	s.cancel = bus.Subscribe(func(e Event) {
		// Events re-derive from the source rather than trusting the
		// payload; a stale notification then converges to reality.
		s.refresh(context.Background())
	})
	s.mu.Unlock()

	s.refresh(ctx)
}

// Close detaches the event listener. Required on unmount; a leaked listener
// keeps refreshing a dead mount forever.
func (s *State) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns the current cell value.
func (s *State) Snapshot() (user *profile.Profile, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.loading
}

// HasRole reports whether the current user's role is in roles. False while
// loading or signed out.
func (s *State) HasRole(roles ...domain.Role) bool {
	user, _ := s.Snapshot()
	if user == nil {
		return false
	}
	return user.Role.In(roles)
}

// SignOut clears the cell and invalidates the session remotely. The local
// clear happens regardless of the remote outcome: a provider outage must not
// trap the UI in a signed-in state. Safe to call when already signed out.
func (s *State) SignOut(ctx context.Context) error {
	gen := s.begin()

	var err error
	if s.remoteSignOut != nil {
		if err = s.remoteSignOut(ctx); err != nil {
			s.logger.WarnContext(ctx, "remote sign-out failed; clearing local state anyway", "error", err)
		}
	}

	s.commit(gen, nil)
	return err
}

func (s *State) refresh(ctx context.Context) {
	gen := s.begin()

	sess, err := s.source.Session(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "session check failed", "error", err)
		s.commit(gen, nil)
		return
	}
	if sess == nil {
		s.commit(gen, nil)
		return
	}

	s.commit(gen, s.fetchProfile(ctx, sess.Subject))
}

// fetchProfile races the lookup against the deadline. Timeouts and failures
// resolve to nil: the UI renders a logged-out view instead of hanging, and
// the losing fetch is abandoned so it can never write late.
func (s *State) fetchProfile(ctx context.Context, subject domain.UserID) *profile.Profile {
	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		prof *profile.Profile
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		prof, err := s.profiles.FindByID(fctx, subject)
		ch <- result{prof, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if !errors.Is(res.err, context.DeadlineExceeded) {
				s.logger.WarnContext(ctx, "profile fetch failed", "error", res.err)
			}
			return nil
		}
		return res.prof
	case <-fctx.Done():
		s.logger.WarnContext(ctx, "profile fetch abandoned at deadline",
			"subject", subject.String(),
			"timeout", s.timeout,
		)
		return nil
	}
}

func (s *State) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// commit applies a refresh outcome unless a newer refresh has begun since.
func (s *State) commit(gen uint64, user *profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.user = user
	s.loading = false
}
