// internal/server/dispatch.go
package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/settlers-of-asgard/server/internal/auth"
	"github.com/settlers-of-asgard/server/internal/database"
	"github.com/settlers-of-asgard/server/internal/game"
	"github.com/settlers-of-asgard/server/internal/lobby"
	"github.com/settlers-of-asgard/server/internal/protocol"
)

// handleLine processes one protocol line and sends exactly one OK or ERR
// back. The returned bool asks the caller to close the connection (EXIT).
func (s *Server) handleLine(c *Client, raw string) bool {
	msg, err := protocol.Decode(raw)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrEmptyLine):
			c.Send(protocol.ErrNullMessage.Line())
		case errors.Is(err, protocol.ErrUnknownCode):
			c.Send(protocol.ErrUnknownCommand.Line())
		default:
			c.Send(protocol.ErrInvalidCommand.Line())
		}
		return false
	}
	if !protocol.CheckArgs(msg.Code, msg.Args) {
		c.Send(protocol.ErrInvalidParameters.Line())
		return false
	}

	// Keepalives are frequent and uninteresting; keep them out of the log.
	if msg.Code != protocol.CodePing {
		s.Log.Debugf("client %s <- %s", c.ID, raw)
	}

	var exit bool
	payload, err := s.dispatch(c, msg, &exit)
	if err != nil {
		var se protocol.ServerError
		if errors.As(err, &se) {
			c.Send(se.Line())
		} else {
			s.Log.Warnf("client %s command %s failed: %v", c.ID, msg.Code, err)
			c.Send(protocol.ErrGameCommandFailed.Line())
		}
		return false
	}
	c.Send(protocol.Encode(protocol.CodeOK, payload...))
	return exit
}

// dispatch routes one decoded command. Admin and lobby commands run inline;
// game commands are queued onto the session and the reply awaited.
func (s *Server) dispatch(c *Client, msg protocol.Message, exit *bool) ([]string, error) {
	switch msg.Code {
	case protocol.CodePing:
		return nil, nil
	case protocol.CodeTest:
		return msg.Args, nil
	case protocol.CodeShutdown:
		go s.Shutdown(context.Background())
		return nil, nil
	case protocol.CodeExit:
		*exit = true
		return nil, nil

	case protocol.CodeRegister:
		return s.cmdRegister(c, msg.Args[0])
	case protocol.CodeChangeName:
		return s.cmdChangeName(c, msg.Args[0])

	case protocol.CodeCreateLobby:
		return s.cmdCreateLobby(c, msg.Args[0])
	case protocol.CodeJoin:
		return s.cmdJoin(c, msg.Args)
	case protocol.CodeLeave:
		return s.cmdLeave(c)
	case protocol.CodeListLobbies:
		return s.cmdListLobbies()
	case protocol.CodeListPlayers:
		return s.cmdListPlayers(c)
	case protocol.CodeStart:
		return s.cmdStart(c)

	case protocol.CodeChatGlobal:
		return s.cmdChatGlobal(c, msg.Args)
	case protocol.CodeChatLobby:
		return s.cmdChatLobby(c, msg.Args)
	case protocol.CodeChatPrivate:
		return s.cmdChatPrivate(c, msg.Args)

	case protocol.CodeLeaderboard:
		return s.cmdLeaderboard()

	default:
		return s.forwardToGame(c, msg)
	}
}

func (s *Server) cmdRegister(c *Client, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, protocol.ErrInvalidParameters
	}
	if err := s.registerName(c, name); err != nil {
		return nil, err
	}
	token, err := auth.CreateReconnectToken(name)
	if err != nil {
		s.Log.Warnf("token issue failed for %s: %v", name, err)
		return []string{name}, nil
	}
	return []string{name, token}, nil
}

func (s *Server) cmdChangeName(c *Client, name string) ([]string, error) {
	old := c.Name()
	if old == "" {
		return nil, protocol.ErrPlayerDoesNotExist
	}
	if _, running := s.Games.ByLobby(c.Lobby()); running {
		// Renames inside a running game would desync the board ownership
		// records; register the new name for the next game instead.
		return nil, protocol.ErrGameCommandFailed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, protocol.ErrInvalidParameters
	}
	if err := s.registerName(c, name); err != nil {
		return nil, err
	}
	if l, ok := s.Lobbies.Get(c.Lobby()); ok {
		l.Rename(old, name)
		s.broadcastToLobby(l, protocol.Encode(protocol.CodeChangeName, old, name))
	}
	return []string{name}, nil
}

func (s *Server) cmdCreateLobby(c *Client, lobbyName string) ([]string, error) {
	name := c.Name()
	if name == "" {
		return nil, protocol.ErrPlayerDoesNotExist
	}
	if c.Lobby() != uuid.Nil {
		return nil, protocol.ErrLobbyCreationFailed
	}
	l, err := s.Lobbies.Create(lobbyName, name, c.ID, game.MaxPlayers)
	if err != nil {
		return nil, err
	}
	c.SetLobby(l.ID)
	s.Log.Infof("lobby %s created by %s", l.Name, name)
	return []string{l.Name}, nil
}

// cmdJoin joins a lobby by name. With a valid reconnect token the caller
// reclaims a held seat in the lobby's running game.
func (s *Server) cmdJoin(c *Client, args []string) ([]string, error) {
	lobbyName, playerName := args[0], args[1]
	l, ok := s.Lobbies.GetByName(lobbyName)
	if !ok {
		return nil, protocol.ErrJoinLobbyFailed
	}

	if len(args) == 3 {
		return s.cmdRejoin(c, l, playerName, args[2])
	}

	if c.Name() == "" {
		if err := s.registerName(c, playerName); err != nil {
			return nil, err
		}
	} else if c.Name() != playerName {
		return nil, protocol.ErrInvalidParameters
	}
	if c.Lobby() != uuid.Nil {
		return nil, protocol.ErrJoinLobbyFailed
	}
	if err := l.Join(c.ID, playerName); err != nil {
		return nil, err
	}
	c.SetLobby(l.ID)
	s.broadcastToLobby(l, protocol.Encode(protocol.CodeJoin, lobbyName, playerName))
	return []string{lobbyName}, nil
}

func (s *Server) cmdRejoin(c *Client, l *lobby.Lobby, playerName, token string) ([]string, error) {
	sub, err := auth.VerifyReconnectToken(token)
	if err != nil || sub != playerName {
		return nil, protocol.ErrInvalidReconnect
	}
	sess, running := s.Games.ByLobby(l.ID)
	if !running {
		return nil, protocol.ErrInvalidReconnect
	}
	if !s.reclaimSeat(sess, playerName) {
		return nil, protocol.ErrInvalidReconnect
	}
	if err := s.registerName(c, playerName); err != nil {
		return nil, err
	}
	c.SetLobby(l.ID)
	s.broadcastToLobby(l, protocol.Encode(protocol.CodeJoin, l.Name, playerName))
	s.Log.Infof("%s reclaimed their seat in %s", playerName, l.Name)
	return []string{l.Name}, nil
}

func (s *Server) cmdLeave(c *Client) ([]string, error) {
	l, ok := s.Lobbies.Get(c.Lobby())
	if !ok {
		return nil, protocol.ErrNotInLobby
	}
	name := c.Name()
	if sess, running := s.Games.ByLobby(l.ID); running {
		s.sessionDo(sess, func(g *game.Session) { g.RemovePlayer(name) })
	}
	l.Leave(name)
	c.SetLobby(uuid.Nil)
	s.broadcastToLobby(l, protocol.Encode(protocol.CodeLeave, name))
	return nil, nil
}

func (s *Server) cmdListLobbies() ([]string, error) {
	lobbies := s.Lobbies.List()
	out := make([]string, 0, len(lobbies))
	for _, l := range lobbies {
		out = append(out, strings.Join([]string{
			l.Name, string(l.CurrentState()), strconv.Itoa(len(l.Members())),
		}, "$"))
	}
	return out, nil
}

func (s *Server) cmdListPlayers(c *Client) ([]string, error) {
	l, ok := s.Lobbies.Get(c.Lobby())
	if !ok {
		return nil, protocol.ErrNotInLobby
	}
	members := l.Members()
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Name)
	}
	return out, nil
}

// cmdStart creates the game session for the caller's lobby and launches its
// run loop. Only the lobby host may start.
func (s *Server) cmdStart(c *Client) ([]string, error) {
	l, ok := s.Lobbies.Get(c.Lobby())
	if !ok {
		return nil, protocol.ErrNotInLobby
	}
	if _, running := s.Games.ByLobby(l.ID); running {
		return nil, protocol.ErrGameAlreadyRunning
	}
	if err := l.Start(c.Name(), game.MinPlayers); err != nil {
		return nil, err
	}

	sess := game.NewSession(l.ID, s.Catalog, nil)
	for _, m := range l.Members() {
		if err := sess.AddPlayer(m.ConnID, m.Name); err != nil {
			l.Finish()
			return nil, err
		}
	}
	if err := sess.Start(); err != nil {
		l.Finish()
		return nil, err
	}

	sess.BroadcastFn = func(ev game.Event) {
		s.broadcastToLobby(l, ev.Line())
	}
	sess.SendToPlayerFn = func(name, line string) {
		if cl, ok := s.clientByName(name); ok {
			cl.Send(line)
		}
	}
	if s.OnAction != nil {
		sess.OnAction = s.OnAction
	}
	sess.OnGameEnd = func(scores []game.PlayerScore) {
		if s.OnGameEnd != nil {
			s.OnGameEnd(sess.ID, scores)
		}
		l.Finish()
		s.Games.Remove(sess.ID)
	}

	l.GameID = sess.ID
	players := len(sess.Players)
	s.Games.Add(sess)
	go sess.Run()

	s.broadcastToLobby(l, protocol.Encode(protocol.CodeStart, l.Name))
	s.Log.Infof("game %s started in lobby %s with %d players", sess.ID, l.Name, players)
	return nil, nil
}

func (s *Server) cmdChatGlobal(c *Client, args []string) ([]string, error) {
	name := c.Name()
	if name == "" {
		return nil, protocol.ErrPlayerDoesNotExist
	}
	s.broadcastAll(protocol.Encode(protocol.CodeChatGlobal, append([]string{name}, args...)...))
	return nil, nil
}

func (s *Server) cmdChatLobby(c *Client, args []string) ([]string, error) {
	l, ok := s.Lobbies.Get(c.Lobby())
	if !ok {
		return nil, protocol.ErrNotInLobby
	}
	s.broadcastToLobby(l, protocol.Encode(protocol.CodeChatLobby, append([]string{c.Name()}, args...)...))
	return nil, nil
}

func (s *Server) cmdChatPrivate(c *Client, args []string) ([]string, error) {
	if len(args) < 2 {
		return nil, protocol.ErrInvalidParameters
	}
	from := c.Name()
	if from == "" {
		return nil, protocol.ErrPlayerDoesNotExist
	}
	if args[0] == from {
		return nil, protocol.ErrCannotWhisperToSelf
	}
	target, ok := s.clientByName(args[0])
	if !ok {
		return nil, protocol.ErrPlayerDoesNotExist
	}
	target.Send(protocol.Encode(protocol.CodeChatPrivate, append([]string{from}, args[1:]...)...))
	return nil, nil
}

func (s *Server) cmdLeaderboard() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	entries, err := database.TopPlayers(ctx, 10)
	if err != nil {
		s.Log.Warnf("leaderboard query failed: %v", err)
		return nil, protocol.ErrGameCommandFailed
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.Join([]string{
			e.PlayerName, strconv.Itoa(e.Wins), strconv.Itoa(e.BestScore),
		}, "$"))
	}
	return out, nil
}

// forwardToGame queues a game command onto the caller's session and waits
// for the session goroutine's reply.
func (s *Server) forwardToGame(c *Client, msg protocol.Message) ([]string, error) {
	lobbyID := c.Lobby()
	if lobbyID == uuid.Nil {
		return nil, protocol.ErrNotInLobby
	}
	sess, ok := s.Games.ByLobby(lobbyID)
	if !ok {
		return nil, protocol.ErrNotInGame
	}
	inv := &game.Invocation{
		Actor: c.Name(),
		Msg:   msg,
		Reply: make(chan game.Reply, 1),
	}
	if err := sess.Enqueue(inv); err != nil {
		return nil, err
	}
	reply := <-inv.Reply
	if reply.Err != nil {
		var fatal game.FatalError
		if errors.As(reply.Err, &fatal) {
			s.Log.Errorf("game %s torn down: %v", sess.ID, fatal)
			s.Games.Remove(sess.ID)
			if l, ok := s.Lobbies.Get(lobbyID); ok {
				l.Finish()
			}
		}
		return nil, reply.Err
	}
	return reply.Payload, nil
}
