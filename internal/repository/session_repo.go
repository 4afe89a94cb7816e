package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-chat/internal/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps chat sessions for the lifetime of a visit.
// Implementations never hand out pointers they keep internally.
type SessionStore interface {
	Create(ctx context.Context, s *chat.Session) error
	Get(ctx context.Context, id uuid.UUID) (*chat.Session, error)
	// Update applies fn atomically. fn reports whether it changed the session;
	// unchanged sessions are not written back.
	Update(ctx context.Context, id uuid.UUID, fn func(s *chat.Session) (bool, error)) (*chat.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

type memoryEntry struct {
	session   *chat.Session
	expiresAt time.Time
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

// NewMemorySessionStore starts a sweeper that drops sessions idle for longer than ttl.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[uuid.UUID]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemorySessionStore) sweep() {
	defer close(s.done)

	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemorySessionStore) removeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemorySessionStore) Create(ctx context.Context, session *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = &memoryEntry{
		session:   session.Clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// lookup must be called with mu held.
func (s *MemorySessionStore) lookup(id uuid.UUID) (*memoryEntry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id uuid.UUID) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.expiresAt = s.now().Add(s.ttl)
	return e.session.Clone(), nil
}

func (s *MemorySessionStore) Update(ctx context.Context, id uuid.UUID, fn func(*chat.Session) (bool, error)) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	working := e.session.Clone()
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if changed {
		e.session = working.Clone()
	}
	e.expiresAt = s.now().Add(s.ttl)
	return working, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the sweeper and waits for it to exit.
func (s *MemorySessionStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	<-s.done
	return nil
}
