// internal/game/serializer.go
package game

import (
	"strconv"
	"strings"
)

// serialize flattens the full authoritative state into protocol arguments so
// a client can rebuild its view from scratch after SYNC. Fields within one
// argument are joined with '$', the same sub-separator error payloads use.
//
// Layout:
//
//	round$currentPlayer$state
//	one arg per player:      P$name$runes$energy$artifactCount
//	one arg per owned tile:  T$x$y$owner$occupantName$level
func (s *Session) serialize() []string {
	cur := ""
	if p := s.CurrentPlayer(); p != nil {
		cur = p.Name
	}
	args := []string{strings.Join([]string{
		strconv.Itoa(s.Round), cur, string(s.State),
	}, "$")}

	for _, p := range s.Players {
		args = append(args, strings.Join([]string{
			"P", p.Name, strconv.Itoa(p.Runes), strconv.Itoa(p.Energy),
			strconv.Itoa(len(p.Artifacts)),
		}, "$"))
	}

	if s.Board == nil {
		return args
	}
	for y := 0; y < BoardHeight; y++ {
		for x := 0; x < BoardWidth; x++ {
			t := s.Board.Tile(x, y)
			if t.Owner == "" {
				continue
			}
			name, level := "", 0
			if t.Occupant != nil {
				name, level = t.Occupant.Name(), t.Occupant.Level
			}
			args = append(args, strings.Join([]string{
				"T", strconv.Itoa(x), strconv.Itoa(y), t.Owner,
				name, strconv.Itoa(level),
			}, "$"))
		}
	}
	return args
}

// stats returns the current standings, one argument per player.
func (s *Session) stats() []string {
	args := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		tiles := 0
		if s.Board != nil {
			tiles = s.Board.OwnedBy(p.Name)
		}
		args = append(args, strings.Join([]string{
			p.Name, strconv.Itoa(p.Runes), strconv.Itoa(p.Energy),
			strconv.Itoa(tiles),
		}, "$"))
	}
	return args
}
