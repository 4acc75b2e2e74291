package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments
// and tests. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, userID uuid.UUID, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = memoryEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, userID uuid.UUID, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[jti]
	if !ok || entry.userID != userID || s.now().After(entry.expiresAt) {
		delete(s.entries, jti)
		return ErrNotFound
	}
	delete(s.entries, jti)
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, userID uuid.UUID, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[jti]; ok && entry.userID == userID {
		delete(s.entries, jti)
	}
	return nil
}

func (s *MemoryStore) RevokeAll(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, entry := range s.entries {
		if entry.userID == userID {
			delete(s.entries, jti)
		}
	}
	return nil
}
