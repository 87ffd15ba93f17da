package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	clock time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.clock = time.Now()
	s.store.now = func() time.Time { return s.clock }
}

func (s *MemoryStoreSuite) TestRevocationLifecycle() {
	ctx := context.Background()

	s.Run("unknown token is not revoked", func() {
		revoked, err := s.store.IsRevoked(ctx, "jti-unknown")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("revoked token is denied until expiry", func() {
		s.Require().NoError(s.store.Revoke(ctx, "jti-1", time.Hour))

		revoked, err := s.store.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.True(revoked)

		s.clock = s.clock.Add(2 * time.Hour)
		revoked, err = s.store.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.False(revoked, "an expired entry denies nothing")
	})

	s.Run("empty token ID is a no-op", func() {
		s.Require().NoError(s.store.Revoke(ctx, "", time.Hour))
		revoked, err := s.store.IsRevoked(ctx, "")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("non-positive ttl is a no-op", func() {
		s.Require().NoError(s.store.Revoke(ctx, "jti-2", 0))
		revoked, err := s.store.IsRevoked(ctx, "jti-2")
		s.Require().NoError(err)
		s.False(revoked)
	})
}
