package credstore

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memEntry struct {
	cred    Credential
	expires time.Time
}

// MemoryStore keeps credentials for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	entries map[string]memEntry
	current string
}

func NewMemoryStore(clock clockwork.Clock, ttl time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{clock: clock, ttl: ttl, entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Save(_ context.Context, c Credential) error {
	if err := validate(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := normalize(c.Username)
	s.entries[name] = memEntry{cred: c, expires: s.clock.Now().Add(s.ttl)}
	s.current = name
	return nil
}

func (s *MemoryStore) Load(_ context.Context, username string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(normalize(username))
}

func (s *MemoryStore) loadLocked(name string) (*Credential, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.clock.Now().Before(e.expires) {
		delete(s.entries, name)
		return nil, ErrNotFound
	}
	c := e.cred
	return &c, nil
}

func (s *MemoryStore) Current(_ context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return nil, ErrNotFound
	}
	return s.loadLocked(s.current)
}

func (s *MemoryStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := normalize(username)
	delete(s.entries, name)
	if s.current == name {
		s.current = ""
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
