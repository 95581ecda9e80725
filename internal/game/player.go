// internal/game/player.go
package game

import "github.com/google/uuid"

// Player is one participant's in-game state. Resource balances never go
// negative: all removals go through the guarded remove methods.
type Player struct {
	ConnID    uuid.UUID
	Name      string
	Runes     int
	Energy    int
	Artifacts []*ArtifactInstance
	Connected bool

	// TilesBought counts this round's tile purchases, reset at the round
	// boundary.
	TilesBought int
}

// NewPlayer seeds a player with the starting balances.
func NewPlayer(connID uuid.UUID, name string) *Player {
	return &Player{
		ConnID:    connID,
		Name:      name,
		Runes:     StartRunes,
		Energy:    StartEnergy,
		Connected: true,
	}
}

// AddRunes credits runes.
func (p *Player) AddRunes(n int) {
	p.Runes += n
}

// RemoveRunes debits runes, failing without mutation if the balance is short.
func (p *Player) RemoveRunes(n int) bool {
	if p.Runes < n {
		return false
	}
	p.Runes -= n
	return true
}

// DrainRunes removes up to n runes and returns how many were actually taken.
func (p *Player) DrainRunes(n int) int {
	if n > p.Runes {
		n = p.Runes
	}
	p.Runes -= n
	return n
}

// AddEnergy credits energy up to the cap.
func (p *Player) AddEnergy(n int) {
	p.Energy += n
	if p.Energy > MaxEnergy {
		p.Energy = MaxEnergy
	}
}

// RemoveEnergy debits energy, failing without mutation if short.
func (p *Player) RemoveEnergy(n int) bool {
	if p.Energy < n {
		return false
	}
	p.Energy -= n
	return true
}

// AddArtifact stores an artifact instance, respecting the held-artifact cap.
func (p *Player) AddArtifact(a *ArtifactInstance) bool {
	if len(p.Artifacts) >= MaxArtifacts {
		return false
	}
	p.Artifacts = append(p.Artifacts, a)
	return true
}

// TakeArtifact removes and returns the first held artifact with the given
// definition name, or nil if none is held.
func (p *Player) TakeArtifact(name string) *ArtifactInstance {
	for i, a := range p.Artifacts {
		if a.Def.Name == name {
			p.Artifacts = append(p.Artifacts[:i], p.Artifacts[i+1:]...)
			return a
		}
	}
	return nil
}
