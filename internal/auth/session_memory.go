package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hikaru/todo-list/backend/internal/store"
)

// MemorySessionStore is a process-local SessionStore. Expiry is enforced
// lazily on Get. Used in tests and redis-less development runs.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		ttl:      SessionTTL,
	}
}

// NewMemorySessionStoreTTL overrides the session lifetime, so tests can
// exercise expiry without waiting a day.
func NewMemorySessionStoreTTL(ttl time.Duration) *MemorySessionStore {
	s := NewMemorySessionStore()
	s.ttl = ttl
	return s
}

func (s *MemorySessionStore) Create(ctx context.Context, userID, username string) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = Session{
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	return token, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session: %w", store.ErrNotFound)
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, fmt.Errorf("session expired: %w", store.ErrNotFound)
	}
	out := sess
	return &out, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
