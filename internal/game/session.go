// internal/game/session.go
package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/settlers-of-asgard/server/internal/catalog"
	"github.com/settlers-of-asgard/server/internal/protocol"
)

// State is the session lifecycle state.
type State string

const (
	StateAwaitingStart   State = "AWAITING_START"
	StateRoundInProgress State = "ROUND_IN_PROGRESS"
	StateTurnInProgress  State = "TURN_IN_PROGRESS"
	StateEnded           State = "GAME_ENDED"
)

// ActionRecord is the minimal description of an applied game command, pushed
// to the history queue after each successful mutation.
type ActionRecord struct {
	GameID      uuid.UUID `json:"game_id"`
	ActionIndex int       `json:"action_index"`
	Actor       string    `json:"actor"`
	Code        string    `json:"code"`
	Args        []string  `json:"args"`
	Timestamp   int64     `json:"timestamp"`
}

// Invocation is one command queued onto a session. Reply receives exactly one
// Reply once the command has been applied or rejected. When Fn is set it runs
// on the session goroutine instead of a wire command; connection lifecycle
// work (disconnects, reconnects) goes through this path so session state is
// only ever touched from one goroutine.
type Invocation struct {
	Actor string
	Msg   protocol.Message
	Fn    func(s *Session)
	Reply chan Reply
}

// Reply is the session's answer to one invocation.
type Reply struct {
	Payload []string
	Err     error
}

// FatalError wraps an internal invariant violation. It forces session
// teardown: silent continuation would risk divergent state across clients.
type FatalError struct {
	Reason interface{}
}

func (e FatalError) Error() string {
	return fmt.Sprintf("fatal session error: %v", e.Reason)
}

// Session owns the authoritative game state for one lobby. All mutation goes
// through the Run loop: commands are applied strictly one at a time, so the
// board and players need no further locking.
type Session struct {
	ID      uuid.UUID
	LobbyID uuid.UUID

	Board     *Board
	Players   []*Player
	Round     int
	TurnIndex int
	State     State

	// TurnTimeout bounds how long one player may hold the open turn slot
	// before it is forfeited and play advances. Zero disables the timer.
	TurnTimeout time.Duration

	rules       []RoundRule
	cat         *catalog.Catalog
	rng         *rand.Rand
	actionIndex int
	turnSeq     int

	// BroadcastFn fans one event line out to every session participant.
	BroadcastFn func(ev Event)
	// SendToPlayerFn delivers a line to a single named player.
	SendToPlayerFn func(name, line string)
	// OnAction receives a record of every applied game command.
	OnAction func(rec ActionRecord)
	// OnGameEnd receives the final standings exactly once.
	OnGameEnd func(scores []PlayerScore)

	inbox chan *Invocation
	stop  chan struct{}

	// mu guards stopped and turnTimer; everything else belongs to the Run
	// goroutine.
	mu        sync.Mutex
	stopped   bool
	turnTimer *time.Timer
}

// NewSession builds a session in AWAITING_START for the given lobby members.
// The random source is injected so tests can seed outcomes.
func NewSession(lobbyID uuid.UUID, cat *catalog.Catalog, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		ID:          uuid.New(),
		LobbyID:     lobbyID,
		State:       StateAwaitingStart,
		TurnTimeout: TurnTime,
		rules:       DefaultRules(),
		cat:         cat,
		rng:         rng,
		inbox:       make(chan *Invocation, CommandQueueSize),
		stop:        make(chan struct{}),
	}
}

// AddPlayer registers a player before start. Names are unique per session.
func (s *Session) AddPlayer(connID uuid.UUID, name string) error {
	if s.State != StateAwaitingStart {
		return protocol.ErrGameAlreadyRunning
	}
	for _, p := range s.Players {
		if p.Name == name {
			return protocol.ErrPlayerAlreadyExists
		}
	}
	s.Players = append(s.Players, NewPlayer(connID, name))
	return nil
}

// Start initializes the board, seeds starting resources and opens round 1.
func (s *Session) Start() error {
	if s.State != StateAwaitingStart {
		return protocol.ErrGameAlreadyRunning
	}
	if len(s.Players) < MinPlayers {
		return protocol.ErrCannotStartGame
	}
	s.Board = NewBoard(s.cat, s.rng)
	s.Round = 1
	s.TurnIndex = 0
	s.State = StateRoundInProgress
	s.armTurnTimer()
	return nil
}

// Run consumes the command queue until Stop. One command's full
// validate-apply-broadcast cycle completes before the next begins. The stop
// check runs first so stopping always wins over queued work.
func (s *Session) Run() {
	for {
		select {
		case <-s.stop:
			s.drainInbox()
			return
		default:
		}
		select {
		case <-s.stop:
			s.drainInbox()
			return
		case inv := <-s.inbox:
			s.handle(inv)
		}
	}
}

// drainInbox answers everything still queued when the run loop exits.
// Callers block on the reply channel with no timeout, so an unanswered
// invocation would strand its connection goroutine forever.
func (s *Session) drainInbox() {
	for {
		select {
		case inv := <-s.inbox:
			inv.Reply <- Reply{Err: protocol.ErrNotInGame}
		default:
			return
		}
	}
}

// Enqueue adds a command to the session queue. A full queue rejects
// immediately instead of buffering without bound. The stopped check and the
// send are atomic with respect to Stop, so every accepted invocation is
// answered either by handle or by the drain.
func (s *Session) Enqueue(inv *Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return protocol.ErrNotInGame
	}
	select {
	case s.inbox <- inv:
		return nil
	default:
		return protocol.ErrCommandQueueFull
	}
}

// Stop ends the run loop. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
}

// handle applies one invocation. Panics inside command application are an
// invariant violation: the session is torn down and all members notified.
func (s *Session) handle(inv *Invocation) {
	defer func() {
		if r := recover(); r != nil {
			s.teardown()
			inv.Reply <- Reply{Err: FatalError{Reason: r}}
		}
	}()

	if inv.Fn != nil {
		inv.Fn(s)
		inv.Reply <- Reply{}
		return
	}

	events, payload, err := s.apply(inv.Actor, inv.Msg)
	if err != nil {
		inv.Reply <- Reply{Err: err}
		return
	}
	for _, ev := range events {
		s.broadcast(ev)
	}
	s.record(inv.Actor, inv.Msg)
	inv.Reply <- Reply{Payload: payload}
}

// apply validates and executes one game command. Either the whole command
// applies and events describe it, or nothing is mutated and err is set.
func (s *Session) apply(actor string, msg protocol.Message) ([]Event, []string, error) {
	if s.State == StateEnded {
		return nil, nil, protocol.ErrNotInGame
	}

	switch msg.Code {
	case protocol.CodeStartTurn:
		return s.startTurn(actor)
	case protocol.CodeEndTurn:
		return s.endTurn(actor)
	case protocol.CodeBuyHexField:
		return s.buyTile(actor, msg.Args)
	case protocol.CodeBuildStructure:
		return s.buildStructure(actor, msg.Args)
	case protocol.CodeUpgradeStructure:
		return s.upgradeStructure(actor, msg.Args)
	case protocol.CodePlaceStatue:
		return s.placeStatue(actor, msg.Args)
	case protocol.CodeTradeResources:
		return s.tradeResources(actor, msg.Args)
	case protocol.CodeResourceBalance:
		return s.resourceBalance(actor)
	case protocol.CodeStartRitual:
		return s.startRitual(actor, msg.Args)
	case protocol.CodeBlessing:
		return s.blessing(actor, msg.Args)
	case protocol.CodeCurse:
		return s.curse(actor, msg.Args)
	case protocol.CodeUseArtifact:
		return s.useArtifact(actor, msg.Args)
	case protocol.CodeFindArtifact:
		return s.findArtifact(actor, msg.Args)
	case protocol.CodeSynchronize:
		return nil, s.serialize(), nil
	case protocol.CodeStats:
		return nil, s.stats(), nil
	default:
		return nil, nil, protocol.ErrUnknownCommand
	}
}

func (s *Session) broadcast(ev Event) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

func (s *Session) record(actor string, msg protocol.Message) {
	if s.OnAction == nil {
		return
	}
	s.actionIndex++
	s.OnAction(ActionRecord{
		GameID:      s.ID,
		ActionIndex: s.actionIndex,
		Actor:       actor,
		Code:        string(msg.Code),
		Args:        msg.Args,
		Timestamp:   time.Now().Unix(),
	})
}

// player finds a session member by display name.
func (s *Session) player(name string) *Player {
	for _, p := range s.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (s *Session) CurrentPlayer() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return s.Players[s.TurnIndex%len(s.Players)]
}

// requireTurn gates in-turn commands: the actor must be the current player
// and must have opened their turn.
func (s *Session) requireTurn(actor string) (*Player, error) {
	cur := s.CurrentPlayer()
	if cur == nil || cur.Name != actor || s.State != StateTurnInProgress {
		return nil, protocol.ErrNotPlayerTurn
	}
	return cur, nil
}

func (s *Session) startTurn(actor string) ([]Event, []string, error) {
	cur := s.CurrentPlayer()
	if cur == nil || cur.Name != actor {
		return nil, nil, protocol.ErrNotPlayerTurn
	}
	if s.State != StateRoundInProgress {
		return nil, nil, protocol.ErrNotPlayerTurn
	}
	s.State = StateTurnInProgress
	return []Event{TurnStarted{Player: cur.Name, Round: s.Round}}, nil, nil
}

func (s *Session) endTurn(actor string) ([]Event, []string, error) {
	cur, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	return s.advanceTurn(cur), nil, nil
}

// advanceTurn closes cur's slot and opens the next one, running the round
// rule list at the round boundary.
func (s *Session) advanceTurn(cur *Player) []Event {
	s.State = StateRoundInProgress
	s.TurnIndex++
	var events []Event
	if s.TurnIndex >= len(s.Players) {
		// Round boundary: run the rule list in order, each rule skippable
		// by its own predicate, then open the next round.
		endedRound := s.Round
		for _, rule := range s.rules {
			if rule.Applies(s) {
				rule.Apply(s)
			}
		}
		for _, p := range s.Players {
			p.TilesBought = 0
		}
		s.TurnIndex = 0
		s.Round++
		events = append(events,
			TurnEnded{Player: cur.Name, Next: s.CurrentPlayer().Name},
			RoundEnded{Round: endedRound},
		)
	} else {
		events = append(events, TurnEnded{Player: cur.Name, Next: s.CurrentPlayer().Name})
	}
	s.armTurnTimer()
	return events
}

// armTurnTimer restarts the forfeit timer for the turn slot now open. The
// sequence counter invalidates any timer from an earlier slot.
func (s *Session) armTurnTimer() {
	if s.TurnTimeout <= 0 {
		return
	}
	s.turnSeq++
	seq := s.turnSeq
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	if s.stopped {
		return
	}
	s.turnTimer = time.AfterFunc(s.TurnTimeout, func() {
		s.Enqueue(&Invocation{
			Fn:    func(g *Session) { g.expireTurn(seq) },
			Reply: make(chan Reply, 1),
		})
	})
}

// expireTurn forfeits a stalled turn slot. A stale timer that lost the race
// against a normal rotation is a no-op.
func (s *Session) expireTurn(seq int) {
	if seq != s.turnSeq || s.State == StateEnded || s.State == StateAwaitingStart {
		return
	}
	cur := s.CurrentPlayer()
	if cur == nil {
		return
	}
	s.broadcast(TurnExpired{Player: cur.Name})
	for _, ev := range s.advanceTurn(cur) {
		s.broadcast(ev)
	}
}

func (s *Session) buyTile(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	t := s.Board.Tile(x, y)
	if t == nil {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if t.Owner != "" {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if p.TilesBought >= TilesPerRound {
		return nil, nil, protocol.ErrGameCommandFailed
	}
	if !p.RemoveRunes(t.Price) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	t.Owner = p.Name
	p.TilesBought++
	return []Event{TileBought{Player: p.Name, X: x, Y: y}}, nil, nil
}

func (s *Session) buildStructure(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	def, err := s.cat.Structure(args[2])
	if err != nil {
		return nil, nil, protocol.ErrUnknownEntity
	}
	t := s.Board.Tile(x, y)
	if t == nil || t.Owner != p.Name || t.Occupant != nil {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if !p.RemoveRunes(def.Price) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	t.Occupant = &StructureInstance{Structure: def, Owner: p.Name, Level: 1}
	return []Event{StructureBuilt{Player: p.Name, X: x, Y: y, Name: def.Name}}, nil, nil
}

func (s *Session) upgradeStructure(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	t := s.Board.Tile(x, y)
	if t == nil || t.Occupant == nil || t.Occupant.Owner != p.Name {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if !p.RemoveRunes(t.Occupant.UpgradePrice()) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	t.Occupant.Level++
	return []Event{StructureUpgraded{Player: p.Name, X: x, Y: y, Level: t.Occupant.Level}}, nil, nil
}

func (s *Session) placeStatue(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	def, err := s.cat.Statue(args[2])
	if err != nil {
		return nil, nil, protocol.ErrUnknownEntity
	}
	t := s.Board.Tile(x, y)
	if t == nil || t.Owner != p.Name || t.Occupant != nil {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if !p.RemoveRunes(def.Price) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	t.Occupant = &StructureInstance{Statue: def, Owner: p.Name, Level: 1}
	return []Event{StatuePlaced{Player: p.Name, X: x, Y: y, Name: def.Name}}, nil, nil
}

func (s *Session) tradeResources(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		return nil, nil, protocol.ErrInvalidParameters
	}
	switch args[0] {
	case "RUNES": // spend runes, gain energy
		if p.Energy+amount > MaxEnergy {
			return nil, nil, protocol.ErrGameCommandFailed
		}
		if !p.RemoveRunes(amount * TradeBuyRate) {
			return nil, nil, protocol.ErrInsufficientFunds
		}
		p.AddEnergy(amount)
	case "ENERGY": // spend energy, gain runes
		if !p.RemoveEnergy(amount) {
			return nil, nil, protocol.ErrInsufficientFunds
		}
		p.AddRunes(amount * TradeSellRate)
	default:
		return nil, nil, protocol.ErrInvalidParameters
	}
	ev := ResourcesTraded{Player: p.Name, Direction: args[0], Amount: amount}
	return []Event{ev}, []string{strconv.Itoa(p.Runes), strconv.Itoa(p.Energy)}, nil
}

// resourceBalance is read-only and not turn-gated.
func (s *Session) resourceBalance(actor string) ([]Event, []string, error) {
	p := s.player(actor)
	if p == nil {
		return nil, nil, protocol.ErrPlayerDoesNotExist
	}
	return nil, []string{strconv.Itoa(p.Runes), strconv.Itoa(p.Energy)}, nil
}

// statueAt resolves an owned statue at (x, y) for the acting player.
func (s *Session) statueAt(p *Player, xs, ys string) (*Tile, *StructureInstance, error) {
	x, y, err := parseCoords(xs, ys)
	if err != nil {
		return nil, nil, err
	}
	t := s.Board.Tile(x, y)
	if t == nil || t.Occupant == nil || t.Occupant.Statue == nil || t.Occupant.Owner != p.Name {
		return nil, nil, protocol.ErrInvalidTarget
	}
	return t, t.Occupant, nil
}

func (s *Session) startRitual(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	_, inst, err := s.statueAt(p, args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	def := inst.Statue
	if inst.Level < 2 {
		// A freshly placed statue is dormant until upgraded once.
		return nil, nil, protocol.ErrGameCommandFailed
	}
	if !p.RemoveEnergy(def.RitualCost) {
		return nil, nil, protocol.ErrInsufficientFunds
	}

	outcome := s.rollOutcome(inst)
	lookupStatueBehavior(def.Name, outcome)(s, p, inst)

	text := def.Deal
	switch outcome {
	case OutcomeBlessing:
		text = def.Blessing
	case OutcomeCurse:
		text = def.Curse
	}
	ev := StatueActivated{Player: p.Name, Statue: def.Name, Outcome: string(outcome), Text: text}
	return []Event{ev}, []string{string(outcome)}, nil
}

// rollOutcome picks the ritual result. Level 2 statues only ever deal;
// level 3 and above use the definition's weighted selection.
func (s *Session) rollOutcome(inst *StructureInstance) StatueOutcome {
	if inst.Level < 3 {
		return OutcomeDeal
	}
	def := inst.Statue
	total := def.DealWeight + def.BlessingWeight + def.CurseWeight
	if total <= 0 {
		return OutcomeDeal
	}
	roll := s.rng.Intn(total)
	if roll < def.DealWeight {
		return OutcomeDeal
	}
	if roll < def.DealWeight+def.BlessingWeight {
		return OutcomeBlessing
	}
	return OutcomeCurse
}

func (s *Session) blessing(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	_, inst, err := s.statueAt(p, args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	if inst.Level < 3 {
		return nil, nil, protocol.ErrGameCommandFailed
	}
	if !p.RemoveEnergy(inst.Statue.BlessingCost) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	lookupStatueBehavior(inst.Statue.Name, OutcomeBlessing)(s, p, inst)
	ev := StatueActivated{Player: p.Name, Statue: inst.Statue.Name, Outcome: string(OutcomeBlessing), Text: inst.Statue.Blessing}
	return []Event{ev}, nil, nil
}

func (s *Session) curse(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	_, inst, err := s.statueAt(p, args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	if inst.Level < 3 {
		return nil, nil, protocol.ErrGameCommandFailed
	}
	target := s.player(args[2])
	if target == nil {
		return nil, nil, protocol.ErrPlayerDoesNotExist
	}
	if target == p {
		return nil, nil, protocol.ErrInvalidTarget
	}
	if !p.RemoveEnergy(inst.Statue.BlessingCost) {
		return nil, nil, protocol.ErrInsufficientFunds
	}
	lookupStatueBehavior(inst.Statue.Name, OutcomeCurse)(s, target, inst)
	ev := StatueActivated{Player: p.Name, Statue: inst.Statue.Name, Outcome: string(OutcomeCurse), Text: inst.Statue.Curse}
	return []Event{ev}, nil, nil
}

func (s *Session) useArtifact(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	if len(args) < 1 {
		return nil, nil, protocol.ErrInvalidParameters
	}
	target := p
	targetName := ""
	if len(args) >= 2 && args[1] != "" {
		targetName = args[1]
		if target = s.player(targetName); target == nil {
			return nil, nil, protocol.ErrPlayerDoesNotExist
		}
	}
	inst := p.TakeArtifact(args[0])
	if inst == nil {
		return nil, nil, protocol.ErrUnknownEntity
	}
	// The behavior lookup never fails: unregistered effects are a no-op and
	// the artifact is still consumed.
	lookupArtifactBehavior(inst.Def.Effect)(s, p, target)
	ev := ArtifactUsed{Player: p.Name, Name: inst.Def.Name, Target: targetName}
	return []Event{ev}, nil, nil
}

func (s *Session) findArtifact(actor string, args []string) ([]Event, []string, error) {
	p, err := s.requireTurn(actor)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := parseCoords(args[0], args[1])
	if err != nil {
		return nil, nil, err
	}
	t := s.Board.Tile(x, y)
	if t == nil || t.Owner != p.Name || t.Artifact == nil {
		return nil, nil, protocol.ErrInvalidTarget
	}
	// Each attempt rolls independently against the artifact's chance.
	if s.rng.Intn(100) >= t.Artifact.Def.Chance {
		return nil, []string{"miss"}, nil
	}
	if !p.AddArtifact(t.Artifact) {
		return nil, nil, protocol.ErrGameCommandFailed
	}
	found := t.Artifact
	t.Artifact = nil
	ev := ArtifactFound{Player: p.Name, Name: found.Def.Name, X: x, Y: y}
	return []Event{ev}, []string{"found", found.Def.Name}, nil
}

// RemovePlayer takes a player out of the session after exit or disconnect.
// Their tiles are released; if only one player remains the game ends.
func (s *Session) RemovePlayer(name string) {
	idx := -1
	for i, p := range s.Players {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasCurrent := idx == s.TurnIndex
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	if s.Board != nil {
		s.Board.ReleaseOwner(name)
	}
	if len(s.Players) > 0 {
		// Keep the turn index valid; only if the current player left is
		// their turn forfeit, with the next player immediately up.
		if idx < s.TurnIndex {
			s.TurnIndex--
		}
		if s.TurnIndex >= len(s.Players) {
			s.TurnIndex = 0
		}
		if wasCurrent {
			if s.State == StateTurnInProgress {
				s.State = StateRoundInProgress
			}
			s.armTurnTimer()
		}
	}
	s.broadcast(PlayerLeft{Player: name})

	if s.State != StateEnded && s.State != StateAwaitingStart && len(s.Players) <= 1 {
		s.finish()
	}
}

// Shutdown ends the game immediately, broadcasting final standings.
func (s *Session) Shutdown() {
	if s.State != StateEnded {
		s.finish()
	}
	s.Stop()
}

// finish computes standings, notifies everyone and seals the session. The
// run loop is stopped here so a finished game does not leave its goroutine
// parked on the inbox.
func (s *Session) finish() {
	scores := s.FinalScores()
	s.State = StateEnded
	s.broadcast(GameEnded{Scores: scores})
	if s.OnGameEnd != nil {
		s.OnGameEnd(scores)
	}
	s.Stop()
}

// FinalScores returns the standings ordered best first, runes as score.
func (s *Session) FinalScores() []PlayerScore {
	scores := make([]PlayerScore, len(s.Players))
	for i, p := range s.Players {
		scores[i] = PlayerScore{Name: p.Name, Runes: p.Runes}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Runes > scores[j].Runes })
	return scores
}

// teardown is the fatal-error path: every member is notified and the session
// stops accepting commands.
func (s *Session) teardown() {
	s.State = StateEnded
	s.broadcast(Notice{Text: "session torn down: internal error"})
	s.Stop()
}

func parseCoords(xs, ys string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, protocol.ErrInvalidParameters
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, protocol.ErrInvalidParameters
	}
	return x, y, nil
}
