// internal/game/store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// Store tracks live sessions by session ID and by owning lobby ID.
type Store struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Session
	byLobby map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]*Session),
		byLobby: make(map[uuid.UUID]*Session),
	}
}

func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.byID[s.ID] = s
	st.byLobby[s.LobbyID] = s
}

func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.byID[id]
	return s, ok
}

func (st *Store) ByLobby(lobbyID uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.byLobby[lobbyID]
	return s, ok
}

func (st *Store) Remove(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.byID[id]; ok {
		delete(st.byLobby, s.LobbyID)
		delete(st.byID, id)
	}
}

// All returns a snapshot of every live session.
func (st *Store) All() []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Session, 0, len(st.byID))
	for _, s := range st.byID {
		out = append(out, s)
	}
	return out
}
