// Package session holds the signed-in citizen for each browser talking to
// the portal. State lives in memory only; a restart logs everyone out.
package session

import (
	"sync"
	"time"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

// Store is the read/mutate capability handed to every protected component.
type Store interface {
	Current() models.Session
	SetIdentity(name, email string)
	Clear()
}

// Allow reports whether a protected view may render for s.
func Allow(s models.Session) bool {
	return s.Identity != ""
}

// MemoryStore is a Store for a single browser session.
type MemoryStore struct {
	mu       sync.RWMutex
	current  models.Session
	lastSeen time.Time
}

// NewMemoryStore returns an empty (logged out) store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lastSeen: time.Now()}
}

func (s *MemoryStore) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetIdentity records a successful login. The email is not validated.
func (s *MemoryStore) SetIdentity(name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = models.Session{DisplayName: name, Identity: email}
}

// Clear logs the citizen out.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = models.Session{}
}

func (s *MemoryStore) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *MemoryStore) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
