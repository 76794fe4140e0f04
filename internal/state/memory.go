package state

import (
	"context"
	"sync"

	"github.com/rajsahu24/invitation-frontend/internal/preview"
)

// MemoryStore is the single-instance Store used when no Redis URL is
// configured.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]preview.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]preview.Snapshot),
	}
}

func (s *MemoryStore) Save(_ context.Context, invitationID string, snap preview.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[invitationID] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, invitationID string) (preview.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[invitationID]
	return snap, ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, invitationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, invitationID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
