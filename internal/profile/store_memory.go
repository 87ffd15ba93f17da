package profile

import (
	"context"
	"sync"
	"time"

	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*Profile
}

// NewMemory constructs an empty in-memory profile store.
func NewMemory() *MemoryStore {
	return &MemoryStore{profiles: make(map[domain.UserID]*Profile)}
}

func (s *MemoryStore) FindByID(ctx context.Context, id domain.UserID) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, p *Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.profiles[p.ID] = &cp
	return nil
}

func (s *MemoryStore) RecordSignIn(ctx context.Context, id domain.UserID, avatarURL string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if avatarURL != "" {
		p.AvatarURL = avatarURL
	}
	signIn := at
	p.LastSignIn = &signIn
	p.UpdatedAt = at
	return nil
}
