package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store for development and single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID, entry string) ([]byte, error) {
	if err := validKey(sessionID, entry); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey(sessionID, entry)
	e, ok := s.entries[key]
	now := s.now()
	if !ok || !now.Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	s.entries[key] = e
	return append([]byte(nil), e.payload...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID, entry string, payload []byte) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey(sessionID, entry)] = memoryEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, entry string) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memoryKey(sessionID, entry))
	return nil
}

// DeleteExpired drops entries whose expiry is at or before cutoff.
func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, e := range s.entries {
		if !cutoff.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func memoryKey(sessionID, entry string) string {
	return sessionID + "\x00" + entry
}
