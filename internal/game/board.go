// internal/game/board.go
package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/settlers-of-asgard/server/internal/catalog"
)

// StructureInstance is a placed structure or statue. The definition is shared
// and immutable; the instance carries the placement and its upgrade level.
type StructureInstance struct {
	Structure *catalog.StructureDef // nil if this instance is a statue
	Statue    *catalog.StatueDef    // nil if this instance is a structure
	Owner     string
	Level     int
}

// Name returns the definition name regardless of which kind is placed.
func (si *StructureInstance) Name() string {
	if si.Statue != nil {
		return si.Statue.Name
	}
	return si.Structure.Name
}

// UpgradePrice returns the per-level upgrade cost of the underlying definition.
func (si *StructureInstance) UpgradePrice() int {
	if si.Statue != nil {
		return si.Statue.UpgradePrice
	}
	return si.Structure.UpgradePrice
}

// ArtifactInstance is one concrete artifact, either hidden on a tile or held
// by a player.
type ArtifactInstance struct {
	ID  uuid.UUID
	Def *catalog.ArtifactDef
}

// Tile is one hex cell. Tiles are owned by the Board and mutated only by the
// session that owns the board.
type Tile struct {
	X, Y     int
	Price    int
	Owner    string // display name, "" if unowned
	Occupant *StructureInstance
	Artifact *ArtifactInstance
}

// Board is a fixed-size hex grid addressed by axial (x, y) coordinates.
type Board struct {
	Width, Height int
	tiles         [][]*Tile
}

// NewBoard creates a fully initialized board and scatters hidden artifacts
// across random tiles using the session's random source.
func NewBoard(cat *catalog.Catalog, rng *rand.Rand) *Board {
	b := &Board{Width: BoardWidth, Height: BoardHeight}
	b.tiles = make([][]*Tile, b.Width)
	for x := 0; x < b.Width; x++ {
		b.tiles[x] = make([]*Tile, b.Height)
		for y := 0; y < b.Height; y++ {
			b.tiles[x][y] = &Tile{X: x, Y: y, Price: TilePrice}
		}
	}

	defs := cat.Artifacts()
	if len(defs) > 0 {
		for i := 0; i < ArtifactTiles; i++ {
			t := b.tiles[rng.Intn(b.Width)][rng.Intn(b.Height)]
			if t.Artifact != nil {
				continue // leave already-seeded tiles alone
			}
			t.Artifact = &ArtifactInstance{
				ID:  uuid.New(),
				Def: defs[rng.Intn(len(defs))],
			}
		}
	}
	return b
}

// Tile returns the tile at (x, y), or nil if out of bounds.
func (b *Board) Tile(x, y int) *Tile {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return nil
	}
	return b.tiles[x][y]
}

// OwnedBy counts tiles owned by the named player.
func (b *Board) OwnedBy(name string) int {
	n := 0
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			if b.tiles[x][y].Owner == name {
				n++
			}
		}
	}
	return n
}

// ReleaseOwner clears ownership of every tile held by the named player.
// Structures on those tiles are removed with them.
func (b *Board) ReleaseOwner(name string) {
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			t := b.tiles[x][y]
			if t.Owner == name {
				t.Owner = ""
				t.Occupant = nil
			}
		}
	}
}
