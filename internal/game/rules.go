// internal/game/rules.go
package game

// RoundRule is a pluggable predicate+effect pair applied at round boundaries.
// Rules run in list order; a rule whose Applies returns false is skipped
// without affecting the rest of the list.
type RoundRule interface {
	Name() string
	Applies(s *Session) bool
	Apply(s *Session)
}

// DefaultRules is the rule list a new session starts with. The list is an
// extension point: additional rules are appended and run in order. No
// win-condition rule ships; sessions end via shutdown or attrition.
func DefaultRules() []RoundRule {
	return []RoundRule{resourceGenerationRule{}}
}

// resourceGenerationRule grants every player RunesPerTile runes per owned
// tile, exactly once per round boundary.
type resourceGenerationRule struct{}

func (resourceGenerationRule) Name() string { return "resource_generation" }

func (resourceGenerationRule) Applies(s *Session) bool {
	return len(s.Players) > 0
}

func (resourceGenerationRule) Apply(s *Session) {
	for _, p := range s.Players {
		owned := s.Board.OwnedBy(p.Name)
		if owned > 0 {
			p.AddRunes(RunesPerTile * owned)
		}
	}
}
