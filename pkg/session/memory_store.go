package session

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

type memoryEntry struct {
	state     domain.AuthState
	expiresAt time.Time
}

// MemoryStore keeps session state in process memory. States are copied in
// and out so callers never share a value with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a store whose entries expire ttl after their last
// save. A positive cleanupInterval starts a background sweep; call Close to
// stop it.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		done:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.AuthState, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return domain.AuthState{}, domain.ErrSessionNotFound
	}
	if !time.Now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return domain.AuthState{}, domain.ErrSessionExpired
	}
	return entry.state, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state domain.AuthState) error {
	now := time.Now()
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = now.UTC()
	}

	s.mu.Lock()
	s.sessions[id] = memoryEntry{state: state, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// DeleteExpired removes expired entries and returns how many were removed.
func (s *MemoryStore) DeleteExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweep.
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.DeleteExpired()
		case <-s.done:
			return
		}
	}
}
