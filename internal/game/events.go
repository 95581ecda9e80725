// internal/game/events.go
package game

import (
	"strconv"
	"strings"

	"github.com/settlers-of-asgard/server/internal/protocol"
)

// Event is a state-changing transition broadcast to every connection in the
// session. Each variant renders to exactly one wire line; delivery order per
// recipient matches the order transitions were applied.
type Event interface {
	Line() string
}

// TileBought is emitted when a player buys a hex field.
type TileBought struct {
	Player string
	X, Y   int
}

func (e TileBought) Line() string {
	return protocol.Encode(protocol.CodeBuyHexField, e.Player, itoa(e.X), itoa(e.Y))
}

// StructureBuilt is emitted when a structure is placed on a tile.
type StructureBuilt struct {
	Player string
	X, Y   int
	Name   string
}

func (e StructureBuilt) Line() string {
	return protocol.Encode(protocol.CodeBuildStructure, e.Player, itoa(e.X), itoa(e.Y), e.Name)
}

// StructureUpgraded is emitted when a structure or statue gains a level.
type StructureUpgraded struct {
	Player string
	X, Y   int
	Level  int
}

func (e StructureUpgraded) Line() string {
	return protocol.Encode(protocol.CodeUpgradeStructure, e.Player, itoa(e.X), itoa(e.Y), itoa(e.Level))
}

// StatuePlaced is emitted when a statue is erected.
type StatuePlaced struct {
	Player string
	X, Y   int
	Name   string
}

func (e StatuePlaced) Line() string {
	return protocol.Encode(protocol.CodePlaceStatue, e.Player, itoa(e.X), itoa(e.Y), e.Name)
}

// StatueActivated is emitted when a ritual resolves. Outcome is one of
// "deal", "blessing", "curse".
type StatueActivated struct {
	Player  string
	Statue  string
	Outcome string
	Text    string
}

func (e StatueActivated) Line() string {
	return protocol.Encode(protocol.CodeStartRitual, e.Player, e.Statue, e.Outcome, e.Text)
}

// ArtifactFound is emitted when a find attempt succeeds.
type ArtifactFound struct {
	Player string
	Name   string
	X, Y   int
}

func (e ArtifactFound) Line() string {
	return protocol.Encode(protocol.CodeFindArtifact, e.Player, e.Name, itoa(e.X), itoa(e.Y))
}

// ArtifactUsed is emitted when a held artifact is consumed.
type ArtifactUsed struct {
	Player string
	Name   string
	Target string
}

func (e ArtifactUsed) Line() string {
	return protocol.Encode(protocol.CodeUseArtifact, e.Player, e.Name, e.Target)
}

// ResourcesTraded is emitted on a successful resource conversion.
type ResourcesTraded struct {
	Player    string
	Direction string
	Amount    int
}

func (e ResourcesTraded) Line() string {
	return protocol.Encode(protocol.CodeTradeResources, e.Player, e.Direction, itoa(e.Amount))
}

// TurnStarted is emitted when the current player opens their turn.
type TurnStarted struct {
	Player string
	Round  int
}

func (e TurnStarted) Line() string {
	return protocol.Encode(protocol.CodeStartTurn, e.Player, itoa(e.Round))
}

// TurnEnded is emitted when a turn closes; Next names the player now up.
type TurnEnded struct {
	Player string
	Next   string
}

func (e TurnEnded) Line() string {
	return protocol.Encode(protocol.CodeEndTurn, e.Player, e.Next)
}

// RoundEnded is emitted after end-of-round rules run; Round is the round that
// just completed.
type RoundEnded struct {
	Round int
}

func (e RoundEnded) Line() string {
	return protocol.Encode(protocol.CodeInfo, "round_ended", itoa(e.Round))
}

// GameEnded carries the final standings, best score first.
type GameEnded struct {
	Scores []PlayerScore
}

// PlayerScore is one leaderboard row of the final standings.
type PlayerScore struct {
	Name  string
	Runes int
}

func (e GameEnded) Line() string {
	parts := make([]string, len(e.Scores))
	for i, s := range e.Scores {
		parts[i] = s.Name + "$" + strconv.Itoa(s.Runes)
	}
	return protocol.Encode(protocol.CodeEndGame, strings.Join(parts, "$"))
}

// PlayerLeft is emitted when a player exits or disconnects mid-game.
type PlayerLeft struct {
	Player string
}

func (e PlayerLeft) Line() string {
	return protocol.Encode(protocol.CodeExit, e.Player)
}

// TurnExpired is emitted when the turn timer forfeits a stalled slot.
type TurnExpired struct {
	Player string
}

func (e TurnExpired) Line() string {
	return protocol.Encode(protocol.CodeInfo, "turn_expired", e.Player)
}

// Notice is a free-text informational event.
type Notice struct {
	Text string
}

func (e Notice) Line() string {
	return protocol.Encode(protocol.CodeInfo, e.Text)
}

func itoa(n int) string { return strconv.Itoa(n) }
