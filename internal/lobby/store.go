// internal/lobby/store.go
package lobby

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/settlers-of-asgard/server/internal/protocol"
)

// Store is the in-memory registry of live lobbies.
type Store struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
	byName  map[string]uuid.UUID
	max     int
}

// NewStore creates a store holding at most max lobbies. max <= 0 means
// unlimited.
func NewStore(max int) *Store {
	return &Store{
		lobbies: make(map[uuid.UUID]*Lobby),
		byName:  make(map[string]uuid.UUID),
		max:     max,
	}
}

// Create registers a new lobby hosted by the given player. Lobby names are
// unique across the store.
func (s *Store) Create(name, host string, hostConn uuid.UUID, capacity int) (*Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.lobbies) >= s.max {
		return nil, protocol.ErrLobbyCreationFailed
	}
	if _, taken := s.byName[name]; taken {
		return nil, protocol.ErrLobbyCreationFailed
	}
	l := New(name, host, hostConn, capacity)
	l.OnEmpty = func(id uuid.UUID) { s.Delete(id) }
	s.lobbies[l.ID] = l
	s.byName[name] = l.ID
	return l, nil
}

// Get looks up a lobby by ID.
func (s *Store) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// GetByName looks up a lobby by its display name.
func (s *Store) GetByName(name string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.lobbies[id], true
}

// Delete removes a lobby from the store.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lobbies[id]; ok {
		delete(s.byName, l.Name)
		delete(s.lobbies, id)
	}
}

// List returns all lobbies sorted by name for stable listings.
func (s *Store) List() []*Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
