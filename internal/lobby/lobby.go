// internal/lobby/lobby.go
package lobby

import (
	"sync"

	"github.com/google/uuid"

	"github.com/settlers-of-asgard/server/internal/protocol"
)

// State is the lobby lifecycle state.
type State string

const (
	StateOpen       State = "OPEN"
	StateInProgress State = "IN_PROGRESS"
	StateClosed     State = "CLOSED"
)

// Member is a single player's presence in a lobby.
type Member struct {
	ConnID uuid.UUID
	Name   string
}

// Lobby is an ephemeral grouping of players waiting for or playing one game.
type Lobby struct {
	ID       uuid.UUID
	Name     string
	Host     string
	Capacity int

	// GameID is set once the lobby's game session is created.
	GameID uuid.UUID

	// OnEmpty is called after the last member leaves. Typically assigned by
	// the store so the lobby deletes itself:
	//   l.OnEmpty = func(id uuid.UUID) { store.Delete(id) }
	OnEmpty func(id uuid.UUID)

	mu      sync.Mutex
	state   State
	members []Member
}

// New creates an open lobby with the host as its first member.
func New(name, host string, hostConn uuid.UUID, capacity int) *Lobby {
	return &Lobby{
		ID:       uuid.New(),
		Name:     name,
		Host:     host,
		Capacity: capacity,
		state:    StateOpen,
		members:  []Member{{ConnID: hostConn, Name: host}},
	}
}

// State returns the current lifecycle state.
func (l *Lobby) CurrentState() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Join adds a player. Joining fails once the game has started, when the
// lobby is full, or when the name is already taken inside the lobby.
func (l *Lobby) Join(connID uuid.UUID, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateOpen {
		return protocol.ErrJoinLobbyFailed
	}
	if l.Capacity > 0 && len(l.members) >= l.Capacity {
		return protocol.ErrJoinLobbyFailed
	}
	for _, m := range l.members {
		if m.Name == name {
			return protocol.ErrPlayerAlreadyExists
		}
	}
	l.members = append(l.members, Member{ConnID: connID, Name: name})
	return nil
}

// Leave removes a player and reports whether the lobby emptied. The host
// leaving an open lobby passes host to the next member.
func (l *Lobby) Leave(name string) bool {
	l.mu.Lock()
	idx := -1
	for i, m := range l.members {
		if m.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.members = append(l.members[:idx], l.members[idx+1:]...)
	empty := len(l.members) == 0
	if empty {
		l.state = StateClosed
	} else if l.Host == name {
		l.Host = l.members[0].Name
	}
	onEmpty := l.OnEmpty
	l.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty(l.ID)
	}
	return empty
}

// Has reports whether the named player is a member.
func (l *Lobby) Has(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.members {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Members returns a snapshot of the membership in join order.
func (l *Lobby) Members() []Member {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Member, len(l.members))
	copy(out, l.members)
	return out
}

// Rename updates a member's display name in place.
func (l *Lobby) Rename(oldName, newName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, m := range l.members {
		if m.Name == oldName {
			l.members[i].Name = newName
			break
		}
	}
	if l.Host == oldName {
		l.Host = newName
	}
}

// Start transitions the lobby to IN_PROGRESS. Only the host may start, and
// only with enough players.
func (l *Lobby) Start(by string, minPlayers int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateOpen || by != l.Host {
		return protocol.ErrCannotStartGame
	}
	if len(l.members) < minPlayers {
		return protocol.ErrCannotStartGame
	}
	l.state = StateInProgress
	return nil
}

// Finish reopens the lobby after its game ends, keeping the members.
func (l *Lobby) Finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateInProgress {
		l.state = StateOpen
		l.GameID = uuid.Nil
	}
}

// Close seals the lobby against further joins.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateClosed
}
