// internal/game/behaviors.go
package game

// Statue and artifact effects are data-plus-behavior dispatch: one behavior
// table keyed by name instead of a concrete type per mythological figure.
// Unregistered names fall back to a default behavior, so adding a catalog
// entry never requires new code.

// StatueOutcome identifies which ritual result fired.
type StatueOutcome string

const (
	OutcomeDeal     StatueOutcome = "deal"
	OutcomeBlessing StatueOutcome = "blessing"
	OutcomeCurse    StatueOutcome = "curse"
)

// StatueBehavior applies one outcome of one statue. The target is the acting
// player for deals and blessings, the cursed player for curses.
type StatueBehavior func(s *Session, target *Player, inst *StructureInstance)

type statueKey struct {
	name    string
	outcome StatueOutcome
}

// statueBehaviors holds the statue-specific effects. Statues without an entry
// use the default effect for the outcome.
var statueBehaviors = map[statueKey]StatueBehavior{
	{"Freyr", OutcomeDeal}: func(s *Session, p *Player, inst *StructureInstance) {
		// Prosperity: a flat bounty scaled by statue level.
		p.AddRunes(10 + 5*inst.Level)
	},
	{"Freyr", OutcomeBlessing}: func(s *Session, p *Player, inst *StructureInstance) {
		p.AddRunes(2 * s.Board.OwnedBy(p.Name))
	},
	{"Freyr", OutcomeCurse}: func(s *Session, p *Player, inst *StructureInstance) {
		p.DrainRunes(p.Runes / 4)
	},
	{"Freyja", OutcomeDeal}: func(s *Session, p *Player, inst *StructureInstance) {
		// Seidr reveals riches: runes now, at the cost the ritual already took.
		p.AddRunes(8 + 4*inst.Level)
	},
	{"Freyja", OutcomeBlessing}: func(s *Session, p *Player, inst *StructureInstance) {
		p.AddEnergy(2)
	},
	{"Freyja", OutcomeCurse}: func(s *Session, p *Player, inst *StructureInstance) {
		if len(p.Artifacts) > 0 {
			p.Artifacts = p.Artifacts[:len(p.Artifacts)-1]
		}
	},
	{"Loki", OutcomeDeal}: func(s *Session, p *Player, inst *StructureInstance) {
		// A wager: double or nothing on 10 runes.
		if s.rng.Intn(2) == 0 {
			p.AddRunes(20)
		} else {
			p.DrainRunes(10)
		}
	},
	{"Surtr", OutcomeDeal}: func(s *Session, p *Player, inst *StructureInstance) {
		if p.RemoveRunes(10) {
			p.AddEnergy(2)
		}
	},
}

// defaultStatueBehavior covers statues with no specific entry.
func defaultStatueBehavior(outcome StatueOutcome) StatueBehavior {
	switch outcome {
	case OutcomeDeal:
		return func(s *Session, p *Player, inst *StructureInstance) {
			p.AddRunes(5 + 3*inst.Level)
		}
	case OutcomeBlessing:
		return func(s *Session, p *Player, inst *StructureInstance) {
			p.AddRunes(10)
		}
	default:
		return func(s *Session, p *Player, inst *StructureInstance) {
			p.DrainRunes(10)
		}
	}
}

// lookupStatueBehavior resolves name+outcome to a behavior, falling back to
// the outcome default.
func lookupStatueBehavior(name string, outcome StatueOutcome) StatueBehavior {
	if b, ok := statueBehaviors[statueKey{name, outcome}]; ok {
		return b
	}
	return defaultStatueBehavior(outcome)
}

// ArtifactBehavior applies a used artifact's effect. Target is the named
// target player if the invocation carried one, otherwise the actor.
type ArtifactBehavior func(s *Session, actor, target *Player)

// artifactBehaviors is keyed by the definition's effect field. Unknown or
// empty effects resolve to a no-op: using such an artifact still consumes it
// and succeeds.
var artifactBehaviors = map[string]ArtifactBehavior{
	"grant_runes": func(s *Session, actor, target *Player) {
		target.AddRunes(20)
	},
	"grant_energy": func(s *Session, actor, target *Player) {
		target.AddEnergy(2)
	},
	"steal_runes": func(s *Session, actor, target *Player) {
		if target != actor {
			actor.AddRunes(target.DrainRunes(10))
		}
	},
	"clear_structure": func(s *Session, actor, target *Player) {
		// Field artifact: clears the first structure found on a tile the
		// target owns.
		for x := 0; x < s.Board.Width; x++ {
			for y := 0; y < s.Board.Height; y++ {
				t := s.Board.Tile(x, y)
				if t.Owner == target.Name && t.Occupant != nil {
					t.Occupant = nil
					return
				}
			}
		}
	},
}

func lookupArtifactBehavior(effect string) ArtifactBehavior {
	if b, ok := artifactBehaviors[effect]; ok {
		return b
	}
	return func(s *Session, actor, target *Player) {} // no-op default
}
