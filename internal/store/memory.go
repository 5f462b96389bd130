package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/climash/dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when a session id is unknown or expired.
	ErrNotFound = errors.New("session not found")
)

// Selection is the presentation state of one dashboard session: the place
// the user is looking at. Weather results are never stored.
type Selection struct {
	ID        string           `json:"id"`
	Location  weather.Location `json:"location"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]Selection

	// retention configuration
	maxSessions int           // max number of sessions kept (0 = unlimited)
	maxAge      time.Duration // idle sessions older than this are dropped (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]Selection),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Create starts a new session looking at loc.
func (s *MemoryStore) Create(loc weather.Location) Selection {
	sel := Selection{
		ID:        uuid.NewString(),
		Location:  loc,
		UpdatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sel.ID] = sel
	s.enforceRetention()
	return sel
}

// Select replaces the location of an existing session.
func (s *MemoryStore) Select(id string, loc weather.Location) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.data[id]
	if !ok || s.expired(sel) {
		delete(s.data, id)
		return Selection{}, ErrNotFound
	}

	sel.Location = loc
	sel.UpdatedAt = s.now().UTC()
	s.data[sel.ID] = sel
	return sel, nil
}

// Get returns the session with the given id.
func (s *MemoryStore) Get(id string) (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, ok := s.data[id]
	if !ok || s.expired(sel) {
		return Selection{}, ErrNotFound
	}
	return sel, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(sel Selection) bool {
	return s.maxAge > 0 && s.now().Sub(sel.UpdatedAt) > s.maxAge
}

// enforceRetention drops expired sessions, then the least recently updated
// ones beyond maxSessions. Callers hold the write lock.
func (s *MemoryStore) enforceRetention() {
	for id, sel := range s.data {
		if s.expired(sel) {
			delete(s.data, id)
		}
	}

	if s.maxSessions <= 0 || len(s.data) <= s.maxSessions {
		return
	}

	sels := make([]Selection, 0, len(s.data))
	for _, sel := range s.data {
		sels = append(sels, sel)
	}
	sort.Slice(sels, func(i, j int) bool {
		return sels[i].UpdatedAt.Before(sels[j].UpdatedAt)
	})

	over := len(sels) - s.maxSessions
	for _, sel := range sels[:over] {
		delete(s.data, sel.ID)
	}
}
