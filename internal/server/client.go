// internal/server/client.go
package server

import (
	"sync"

	"github.com/google/uuid"
)

// outChanSize bounds the per-client outbound buffer. A client that cannot
// drain its buffer starts losing broadcasts rather than stalling the sender.
const outChanSize = 64

// Client is one connected player, regardless of transport.
type Client struct {
	ID uuid.UUID

	// Out is drained by the transport's write pump. Closed exactly once via
	// CloseSend.
	Out chan string

	mu      sync.Mutex
	name    string
	lobbyID uuid.UUID
	closed  bool
}

func NewClient() *Client {
	return &Client{
		ID:  uuid.New(),
		Out: make(chan string, outChanSize),
	}
}

// Send queues a line for delivery. Lines to a slow or dead client are
// dropped; the keepalive timeout reaps the connection soon after.
func (c *Client) Send(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Out <- line:
		return true
	default:
		return false
	}
}

// CloseSend seals the outbound channel so the write pump exits. Idempotent.
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Out)
	}
}

// Name returns the registered player name, empty before RGST.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Lobby returns the joined lobby ID, uuid.Nil when not in a lobby.
func (c *Client) Lobby() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbyID
}

func (c *Client) SetLobby(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbyID = id
}
