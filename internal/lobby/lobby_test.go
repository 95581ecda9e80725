// internal/lobby/lobby_test.go
package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlers-of-asgard/server/internal/protocol"
)

func TestJoinAndLeave(t *testing.T) {
	l := New("ragnarok", "alice", uuid.New(), 4)
	assert.Equal(t, StateOpen, l.CurrentState())
	assert.True(t, l.Has("alice"))

	require.NoError(t, l.Join(uuid.New(), "bob"))
	assert.ErrorIs(t, l.Join(uuid.New(), "bob"), protocol.ErrPlayerAlreadyExists)

	require.NoError(t, l.Join(uuid.New(), "carol"))
	require.NoError(t, l.Join(uuid.New(), "dave"))
	assert.ErrorIs(t, l.Join(uuid.New(), "erin"), protocol.ErrJoinLobbyFailed, "lobby is full")

	assert.False(t, l.Leave("bob"))
	assert.False(t, l.Has("bob"))
	require.NoError(t, l.Join(uuid.New(), "erin"))
}

func TestHostHandoffOnLeave(t *testing.T) {
	l := New("ragnarok", "alice", uuid.New(), 0)
	require.NoError(t, l.Join(uuid.New(), "bob"))

	l.Leave("alice")
	assert.Equal(t, "bob", l.Host)
}

func TestJoinInProgressFails(t *testing.T) {
	l := New("ragnarok", "alice", uuid.New(), 0)
	require.NoError(t, l.Join(uuid.New(), "bob"))
	require.NoError(t, l.Start("alice", 2))

	assert.ErrorIs(t, l.Join(uuid.New(), "carol"), protocol.ErrJoinLobbyFailed)
	assert.Equal(t, StateInProgress, l.CurrentState())

	l.Finish()
	assert.Equal(t, StateOpen, l.CurrentState())
	require.NoError(t, l.Join(uuid.New(), "carol"))
}

func TestStartChecks(t *testing.T) {
	l := New("ragnarok", "alice", uuid.New(), 0)
	assert.ErrorIs(t, l.Start("alice", 2), protocol.ErrCannotStartGame, "too few players")

	require.NoError(t, l.Join(uuid.New(), "bob"))
	assert.ErrorIs(t, l.Start("bob", 2), protocol.ErrCannotStartGame, "only the host starts")
	require.NoError(t, l.Start("alice", 2))
	assert.ErrorIs(t, l.Start("alice", 2), protocol.ErrCannotStartGame, "already started")
}

func TestRename(t *testing.T) {
	l := New("ragnarok", "alice", uuid.New(), 0)
	require.NoError(t, l.Join(uuid.New(), "bob"))

	l.Rename("alice", "aesir")
	assert.True(t, l.Has("aesir"))
	assert.False(t, l.Has("alice"))
	assert.Equal(t, "aesir", l.Host)
}

func TestStoreCreateLimits(t *testing.T) {
	s := NewStore(2)

	l1, err := s.Create("one", "alice", uuid.New(), 0)
	require.NoError(t, err)
	_, err = s.Create("one", "bob", uuid.New(), 0)
	assert.ErrorIs(t, err, protocol.ErrLobbyCreationFailed, "duplicate name")

	_, err = s.Create("two", "bob", uuid.New(), 0)
	require.NoError(t, err)
	_, err = s.Create("three", "carol", uuid.New(), 0)
	assert.ErrorIs(t, err, protocol.ErrLobbyCreationFailed, "store full")

	got, ok := s.Get(l1.ID)
	require.True(t, ok)
	assert.Equal(t, "one", got.Name)
	byName, ok := s.GetByName("two")
	require.True(t, ok)
	assert.Equal(t, "two", byName.Name)

	names := []string{}
	for _, l := range s.List() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"one", "two"}, names)
}

func TestStoreDeletesEmptyLobby(t *testing.T) {
	s := NewStore(0)
	l, err := s.Create("one", "alice", uuid.New(), 0)
	require.NoError(t, err)

	assert.True(t, l.Leave("alice"))
	_, ok := s.Get(l.ID)
	assert.False(t, ok, "the last leaver tears the lobby down")
	_, err = s.Create("one", "bob", uuid.New(), 0)
	assert.NoError(t, err, "the name is free again")
}
