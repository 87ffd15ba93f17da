package state_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pressroom/internal/auth/models"
	"pressroom/internal/auth/state"
	"pressroom/internal/profile"
	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

type fakeSource struct {
	mu      sync.Mutex
	session *models.Session
	err     error
	calls   int
}

func (f *fakeSource) Session(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.session, f.err
}

func (f *fakeSource) set(sess *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = sess
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingProfiles parks FindByID until release is closed, ignoring the
// context, to model a hung profile backend.
type blockingProfiles struct {
	release chan struct{}
	prof    *profile.Profile
}

func (b *blockingProfiles) FindByID(ctx context.Context, id domain.UserID) (*profile.Profile, error) {
	<-b.release
	if b.prof == nil {
		return nil, sentinel.ErrNotFound
	}
	return b.prof, nil
}

type StateSuite struct {
	suite.Suite
	logger *slog.Logger
	userID domain.UserID
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	id, err := domain.ParseUserID(uuid.NewString())
	s.Require().NoError(err)
	s.userID = id
}

func (s *StateSuite) session() *models.Session {
	return &models.Session{
		AccessToken: "token",
		TokenID:     uuid.NewString(),
		Subject:     s.userID,
		Email:       "reporter@example.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func (s *StateSuite) profileStore() *profile.MemoryStore {
	store := profile.NewMemory()
	s.Require().NoError(store.Save(context.Background(), &profile.Profile{
		ID:    s.userID,
		Email: "reporter@example.com",
		Role:  domain.RoleEditor,
	}))
	return store
}

func (s *StateSuite) TestStartsLoadingThenSettlesSignedOut() {
	source := &fakeSource{}
	st := state.New(source, s.profileStore(), s.logger)
	defer st.Close()

	user, loading := st.Snapshot()
	s.Nil(user)
	s.True(loading)

	st.Start(context.Background(), state.NewBus())

	user, loading = st.Snapshot()
	s.Nil(user)
	s.False(loading)
}

func (s *StateSuite) TestResolvesSignedInUser() {
	source := &fakeSource{session: s.session()}
	st := state.New(source, s.profileStore(), s.logger)
	defer st.Close()

	st.Start(context.Background(), state.NewBus())

	user, loading := st.Snapshot()
	s.False(loading)
	s.Require().NotNil(user)
	s.Equal(domain.RoleEditor, user.Role)
	s.True(st.HasRole(domain.RoleAdmin, domain.RoleEditor))
	s.False(st.HasRole(domain.RoleAdmin))
}

func (s *StateSuite) TestHungProfileStoreSettlesByDeadline() {
	source := &fakeSource{session: s.session()}
	profiles := &blockingProfiles{release: make(chan struct{})}
	st := state.New(source, profiles, s.logger, state.WithTimeout(50*time.Millisecond))
	defer st.Close()

	started := time.Now()
	st.Start(context.Background(), state.NewBus())
	elapsed := time.Since(started)

	s.Less(elapsed, 250*time.Millisecond)

	user, loading := st.Snapshot()
	s.Nil(user)
	s.False(loading)

	// The abandoned fetch completes late; it must not write.
	profiles.prof = &profile.Profile{ID: s.userID, Role: domain.RoleAdmin}
	close(profiles.release)
	time.Sleep(20 * time.Millisecond)

	user, _ = st.Snapshot()
	s.Nil(user)
	s.False(st.HasRole(domain.RoleAdmin))
}

func (s *StateSuite) TestEventTriggersRefresh() {
	source := &fakeSource{}
	st := state.New(source, s.profileStore(), s.logger)
	defer st.Close()

	bus := state.NewBus()
	st.Start(context.Background(), bus)

	user, _ := st.Snapshot()
	s.Nil(user)

	source.set(s.session())
	bus.Publish(state.Event{Type: state.EventSignedIn, Subject: s.userID.String()})

	s.Eventually(func() bool {
		user, loading := st.Snapshot()
		return !loading && user != nil && user.ID == s.userID
	}, time.Second, 5*time.Millisecond)
}

func (s *StateSuite) TestSignedOutEventClearsUser() {
	source := &fakeSource{session: s.session()}
	st := state.New(source, s.profileStore(), s.logger)
	defer st.Close()

	bus := state.NewBus()
	st.Start(context.Background(), bus)

	user, _ := st.Snapshot()
	s.Require().NotNil(user)

	source.set(nil)
	bus.Publish(state.Event{Type: state.EventSignedOut})

	s.Eventually(func() bool {
		user, _ := st.Snapshot()
		return user == nil
	}, time.Second, 5*time.Millisecond)
}

func (s *StateSuite) TestCloseDetachesListener() {
	source := &fakeSource{}
	st := state.New(source, s.profileStore(), s.logger)

	bus := state.NewBus()
	st.Start(context.Background(), bus)
	before := source.callCount()

	st.Close()
	bus.Publish(state.Event{Type: state.EventSignedIn})
	time.Sleep(20 * time.Millisecond)

	s.Equal(before, source.callCount())
}

func (s *StateSuite) TestSignOutClearsState() {
	source := &fakeSource{session: s.session()}
	var remoteCalls int
	st := state.New(source, s.profileStore(), s.logger,
		state.WithSignOut(func(ctx context.Context) error {
			remoteCalls++
			return nil
		}),
	)
	defer st.Close()

	st.Start(context.Background(), state.NewBus())
	s.True(st.HasRole(domain.RoleEditor))

	s.NoError(st.SignOut(context.Background()))
	s.Equal(1, remoteCalls)

	user, loading := st.Snapshot()
	s.Nil(user)
	s.False(loading)
}

func (s *StateSuite) TestSignOutClearsLocallyWhenRemoteFails() {
	source := &fakeSource{session: s.session()}
	st := state.New(source, s.profileStore(), s.logger,
		state.WithSignOut(func(ctx context.Context) error {
			return errors.New("provider unreachable")
		}),
	)
	defer st.Close()

	st.Start(context.Background(), state.NewBus())
	s.True(st.HasRole(domain.RoleEditor))

	err := st.SignOut(context.Background())
	s.Error(err)

	user, loading := st.Snapshot()
	s.Nil(user)
	s.False(loading)
}

func (s *StateSuite) TestSignOutWhenAlreadySignedOut() {
	source := &fakeSource{}
	st := state.New(source, s.profileStore(), s.logger)
	defer st.Close()

	st.Start(context.Background(), state.NewBus())

	s.NoError(st.SignOut(context.Background()))
	s.NoError(st.SignOut(context.Background()))

	user, loading := st.Snapshot()
	s.Nil(user)
	s.False(loading)
}
