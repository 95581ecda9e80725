// internal/server/server.go
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/settlers-of-asgard/server/internal/catalog"
	"github.com/settlers-of-asgard/server/internal/game"
	"github.com/settlers-of-asgard/server/internal/lobby"
	"github.com/settlers-of-asgard/server/internal/protocol"
)

const (
	// DefaultIdleTimeout reaps connections that stop sending, including
	// keepalive pings.
	DefaultIdleTimeout = 90 * time.Second

	// DefaultPingInterval is how often the server pings each client.
	DefaultPingInterval = 30 * time.Second

	// DefaultReconnectGrace is how long a dropped player's seat is held for
	// a token reconnect before they are removed from their game.
	DefaultReconnectGrace = 60 * time.Second

	// DefaultMaxLobbies bounds concurrent lobbies.
	DefaultMaxLobbies = 64
)

// Server owns the client registry, the lobby store and the live sessions,
// and serves the line protocol over any transport that delivers lines.
type Server struct {
	Log     *logrus.Logger
	Catalog *catalog.Catalog
	Lobbies *lobby.Store
	Games   *game.Store

	IdleTimeout    time.Duration
	PingInterval   time.Duration
	ReconnectGrace time.Duration

	// OnAction, when set, receives every applied game command (history queue).
	OnAction func(rec game.ActionRecord)
	// OnGameEnd, when set, receives final standings for persistence.
	OnGameEnd func(gameID uuid.UUID, scores []game.PlayerScore)

	mu      sync.Mutex
	clients map[uuid.UUID]*Client
	byName  map[string]*Client
	// graceTimers holds pending seat-removal timers for dropped players.
	graceTimers map[string]*time.Timer

	ln       net.Listener
	shutdown chan struct{}
	shutOnce sync.Once
}

func New(log *logrus.Logger, cat *catalog.Catalog) *Server {
	return &Server{
		Log:            log,
		Catalog:        cat,
		Lobbies:        lobby.NewStore(DefaultMaxLobbies),
		Games:          game.NewStore(),
		IdleTimeout:    DefaultIdleTimeout,
		PingInterval:   DefaultPingInterval,
		ReconnectGrace: DefaultReconnectGrace,
		clients:        make(map[uuid.UUID]*Client),
		byName:         make(map[string]*Client),
		graceTimers:    make(map[string]*time.Timer),
		shutdown:       make(chan struct{}),
	}
}

// ListenAndServe accepts TCP connections until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.Log.Infof("listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.ServeConn(conn)
	}
}

// ServeConn runs the full client lifecycle on one TCP connection. Each line
// is one protocol command; each command produces exactly one OK or ERR.
func (s *Server) ServeConn(conn net.Conn) {
	c := NewClient()
	s.addClient(c)
	s.Log.Infof("client %s connected from %s", c.ID, conn.RemoteAddr())

	// Write pump.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range c.Out {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
	}()

	stopPing := make(chan struct{})
	go s.keepalive(c, stopPing)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for {
		conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		if !sc.Scan() {
			break
		}
		if s.handleLine(c, sc.Text()) {
			break
		}
	}

	close(stopPing)
	s.dropClient(c)
	c.CloseSend()
	<-done
	conn.Close()
	s.Log.Infof("client %s disconnected", c.ID)
}

// keepalive pings c every PingInterval until stop is closed. A client that
// stops writing back is reaped by the read deadline.
func (s *Server) keepalive(c *Client, stop <-chan struct{}) {
	t := time.NewTicker(s.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.Send(protocol.Encode(protocol.CodePing))
		}
	}
}

func (s *Server) addClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// registerName claims a globally unique player name for c.
func (s *Server) registerName(c *Client, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[name]; taken {
		return protocol.ErrPlayerAlreadyExists
	}
	if old := c.Name(); old != "" {
		delete(s.byName, old)
	}
	s.byName[name] = c
	c.SetName(name)
	return nil
}

// clientByName finds a registered client.
func (s *Server) clientByName(name string) (*Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byName[name]
	return c, ok
}

// dropClient removes c from the registry and detaches it from lobby and
// game. A player inside a running game keeps their seat for ReconnectGrace.
func (s *Server) dropClient(c *Client) {
	name := c.Name()
	s.mu.Lock()
	delete(s.clients, c.ID)
	if name != "" && s.byName[name] == c {
		delete(s.byName, name)
	}
	s.mu.Unlock()
	if name == "" {
		return
	}

	lobbyID := c.Lobby()
	if lobbyID == uuid.Nil {
		return
	}
	l, ok := s.Lobbies.Get(lobbyID)
	if !ok {
		return
	}

	if sess, running := s.Games.ByLobby(lobbyID); running {
		s.holdSeat(sess, l, name)
		return
	}
	l.Leave(name)
	s.broadcastToLobby(l, protocol.Encode(protocol.CodeExit, name))
}

// holdSeat marks the player disconnected and schedules their removal unless
// they reconnect within the grace window.
func (s *Server) holdSeat(sess *game.Session, l *lobby.Lobby, name string) {
	s.sessionDo(sess, func(g *game.Session) {
		for _, p := range g.Players {
			if p.Name == name {
				p.Connected = false
			}
		}
	})
	s.Log.Infof("holding seat for %s in lobby %s", name, l.Name)

	timer := time.AfterFunc(s.ReconnectGrace, func() {
		s.mu.Lock()
		delete(s.graceTimers, name)
		s.mu.Unlock()
		s.sessionDo(sess, func(g *game.Session) { g.RemovePlayer(name) })
		l.Leave(name)
		s.Log.Infof("seat for %s expired", name)
	})
	s.mu.Lock()
	if old, ok := s.graceTimers[name]; ok {
		old.Stop()
	}
	s.graceTimers[name] = timer
	s.mu.Unlock()
}

// reclaimSeat cancels a pending removal and reattaches the player.
func (s *Server) reclaimSeat(sess *game.Session, name string) bool {
	s.mu.Lock()
	timer, held := s.graceTimers[name]
	if held {
		timer.Stop()
		delete(s.graceTimers, name)
	}
	s.mu.Unlock()
	if !held {
		return false
	}
	s.sessionDo(sess, func(g *game.Session) {
		for _, p := range g.Players {
			if p.Name == name {
				p.Connected = true
			}
		}
	})
	return true
}

// sessionDo runs fn on the session goroutine and waits for completion.
func (s *Server) sessionDo(sess *game.Session, fn func(*game.Session)) {
	inv := &game.Invocation{Fn: fn, Reply: make(chan game.Reply, 1)}
	if err := sess.Enqueue(inv); err != nil {
		return
	}
	<-inv.Reply
}

// broadcastAll sends one line to every connected client.
func (s *Server) broadcastAll(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.Send(line)
	}
}

// broadcastToLobby sends one line to every member of l.
func (s *Server) broadcastToLobby(l *lobby.Lobby, line string) {
	for _, m := range l.Members() {
		if c, ok := s.clientByName(m.Name); ok {
			c.Send(line)
		}
	}
}

// Shutdown notifies every client, ends all sessions and closes the listener.
func (s *Server) Shutdown(ctx context.Context) {
	s.shutOnce.Do(func() {
		close(s.shutdown)
		s.Log.Info("shutting down")
		s.broadcastAll(protocol.Encode(protocol.CodeShutdown))

		for _, sess := range s.Games.All() {
			s.sessionDo(sess, func(g *game.Session) { g.Shutdown() })
			s.Games.Remove(sess.ID)
		}
		for _, l := range s.Lobbies.List() {
			l.Close()
		}

		s.mu.Lock()
		for _, t := range s.graceTimers {
			t.Stop()
		}
		clients := make([]*Client, 0, len(s.clients))
		for _, c := range s.clients {
			clients = append(clients, c)
		}
		ln := s.ln
		s.mu.Unlock()

		for _, c := range clients {
			c.CloseSend()
		}
		if ln != nil {
			ln.Close()
		}
	})
}
