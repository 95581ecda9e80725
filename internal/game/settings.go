// internal/game/settings.go
package game

import "time"

// Gameplay constants. These mirror the balance values the game shipped with;
// they are not user-tunable at runtime.
const (
	BoardWidth  = 8
	BoardHeight = 7

	StartRunes  = 50
	StartEnergy = 0
	MaxEnergy   = 4

	TilePrice = 10

	// TilesPerRound caps tile purchases per player per round.
	TilesPerRound = 3

	// TurnTime is the default forfeit timeout for an open turn slot.
	TurnTime = 60 * time.Second

	// RunesPerTile is the per-tile grant applied by the resource generation
	// rule at the end of every round.
	RunesPerTile = 5

	MaxArtifacts = 3

	// ArtifactTiles is how many tiles receive a hidden artifact at board init.
	ArtifactTiles = 8

	// Trade rates: buying energy costs TradeBuyRate runes per point; selling
	// energy returns TradeSellRate runes per point.
	TradeBuyRate  = 8
	TradeSellRate = 4

	MinPlayers = 2
	MaxPlayers = 4

	// CommandQueueSize bounds the per-session command queue. Commands beyond
	// this are rejected rather than buffered (backpressure against floods).
	CommandQueueSize = 32
)
