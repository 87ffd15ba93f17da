package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) TestLookupBehavior() {
	s.Run("returns profile by ID when exists", func() {
		p := &Profile{
			ID:    domain.UserID(uuid.New()),
			Email: "jane.doe@example.com",
			Role:  domain.RoleEditor,
		}
		s.Require().NoError(s.store.Save(context.Background(), p))

		found, err := s.store.FindByID(context.Background(), p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
		s.Equal(domain.RoleEditor, found.Role)
		s.False(found.CreatedAt.IsZero())
	})

	s.Run("returns ErrNotFound when profile does not exist", func() {
		_, err := s.store.FindByID(context.Background(), domain.UserID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("honors an already-cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.store.FindByID(ctx, domain.UserID(uuid.New()))
		s.Require().ErrorIs(err, context.Canceled)
	})
}

func (s *MemoryStoreSuite) TestRecordSignIn() {
	s.Run("updates avatar and last sign-in", func() {
		p := &Profile{
			ID:        domain.UserID(uuid.New()),
			Email:     "avatar@example.com",
			Role:      domain.RoleAdmin,
			AvatarURL: "https://cdn.test/old.png",
		}
		s.Require().NoError(s.store.Save(context.Background(), p))

		at := time.Now().Truncate(time.Second)
		err := s.store.RecordSignIn(context.Background(), p.ID, "https://cdn.test/new.png", at)
		s.Require().NoError(err)

		found, err := s.store.FindByID(context.Background(), p.ID)
		s.Require().NoError(err)
		s.Equal("https://cdn.test/new.png", found.AvatarURL)
		s.Require().NotNil(found.LastSignIn)
		s.True(found.LastSignIn.Equal(at))
	})

	s.Run("empty avatar keeps the existing one", func() {
		p := &Profile{
			ID:        domain.UserID(uuid.New()),
			Role:      domain.RoleReader,
			AvatarURL: "https://cdn.test/keep.png",
		}
		s.Require().NoError(s.store.Save(context.Background(), p))

		err := s.store.RecordSignIn(context.Background(), p.ID, "", time.Now())
		s.Require().NoError(err)

		found, err := s.store.FindByID(context.Background(), p.ID)
		s.Require().NoError(err)
		s.Equal("https://cdn.test/keep.png", found.AvatarURL)
	})

	s.Run("unknown subject returns ErrNotFound", func() {
		err := s.store.RecordSignIn(context.Background(), domain.UserID(uuid.New()), "x", time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestFindReturnsCopy() {
	p := &Profile{ID: domain.UserID(uuid.New()), Role: domain.RoleReader}
	s.Require().NoError(s.store.Save(context.Background(), p))

	first, err := s.store.FindByID(context.Background(), p.ID)
	s.Require().NoError(err)
	first.Role = domain.RoleAdmin

	second, err := s.store.FindByID(context.Background(), p.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleReader, second.Role, "mutating a returned profile must not leak into the store")
}
