package session

import (
	"sync"
	"time"

	"barbershop-whatsapp/internal/models"
)

// Store keeps one conversation per customer identifier in memory.
// Sessions idle for longer than the TTL are treated as absent.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a new session store
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the customer's session, or false if there is none
func (s *Store) Get(customerID string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[customerID]
	if !ok {
		return models.Session{}, false
	}
	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, customerID)
		return models.Session{}, false
	}
	return *sess, true
}

// Put stores the session, overwriting any previous one
func (s *Store) Put(customerID string, sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[customerID] = &sess
}

// Delete removes the customer's session
func (s *Store) Delete(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, customerID)
}

// Evict drops every idle session and returns how many were removed
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, sess := range s.sessions {
		if s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, idle ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
