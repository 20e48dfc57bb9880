package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var battleLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "battle").Logger()
	return &logger
}

var ErrEmptyTeam = errors.New("team has no pokemon that can battle")

// Chooser picks an action for side. The state it receives is a copy.
type Chooser interface {
	ChooseAction(state *BattleState, side Side) Action
}

type TeamConfig struct {
	Name     string
	Slots    []TeamSlot
	Mechanic MechanicKind
}

type Options struct {
	// RNG drives every random decision. Nil seeds a fresh PCG source.
	RNG RNG
	// Opponent, when set, controls side two: it answers every SubmitAction
	// and fills side two's forced switches.
	Opponent Chooser
}

// Battle is the turn state machine for one two-sided battle. It is not safe
// for concurrent use; callers serialise actions.
type Battle struct {
	state    BattleState
	rng      RNG
	opponent Chooser
	pending  [2]*Action
}

func NewBattle(one, two TeamConfig, opts Options) (*Battle, error) {
	rng := opts.RNG
	if rng == nil {
		seed, err := NewSeed()
		if err != nil {
			return nil, fmt.Errorf("seed battle rng: %w", err)
		}
		rng = NewRNG(seed)
	}
	b := &Battle{
		rng:      rng,
		opponent: opts.Opponent,
		state:    BattleState{Phase: PhaseSetup},
	}
	for i, cfg := range []TeamConfig{one, two} {
		team, err := buildTeam(cfg)
		if err != nil {
			return nil, fmt.Errorf("side %s: %w", Side(i), err)
		}
		b.state.Teams[i] = team
	}

	for _, side := range b.fieldOrder() {
		b.switchIn(side, 0)
	}
	b.state.Phase = PhaseActionSelect
	b.startTurn()
	return b, nil
}

func buildTeam(cfg TeamConfig) (BattleTeam, error) {
	mech, ok := ParseMechanicKind(string(cfg.Mechanic))
	if !ok {
		mech = MechanicNone
	}
	team := BattleTeam{Name: cfg.Name, Mechanic: mech}
	for _, slot := range cfg.Slots {
		if len(slot.Moves) == 0 {
			continue
		}
		if len(team.Pokemon) == MaxTeamSize {
			break
		}
		team.Pokemon = append(team.Pokemon, NewBattlePokemon(slot))
	}
	if len(team.Pokemon) == 0 {
		return BattleTeam{}, ErrEmptyTeam
	}
	return team, nil
}

// State returns a deep copy of the current state.
func (b *Battle) State() BattleState {
	return b.state.Clone()
}

func (b *Battle) Phase() Phase {
	return b.state.Phase
}

func (b *Battle) Ended() bool {
	return b.state.ended()
}

// Pending reports whether side already has an action buffered this turn.
func (b *Battle) Pending(side Side) bool {
	return side.valid() && b.pending[side] != nil
}

// LegalActions is what side may submit right now. A side that already has
// an action buffered for this turn has nothing left to submit.
func (b *Battle) LegalActions(side Side) []Action {
	if b.Pending(side) {
		return nil
	}
	return b.state.LegalActions(side)
}

// Submit buffers one side's action. The turn resolves once both sides have
// submitted. During a forced switch it performs the switch directly.
// Illegal actions and second submissions for a side are ignored.
func (b *Battle) Submit(side Side, a Action) bool {
	if b.state.ended() || !b.state.IsLegal(side, a) {
		return false
	}
	if b.state.Phase == PhaseForceSwitch {
		b.forcedSwitch(side, a.Index)
		b.fillOpponentSwitch()
		return true
	}
	if b.pending[side] != nil {
		return false
	}
	b.pending[side] = &a
	if b.pending[SideOne] != nil && b.pending[SideTwo] != nil {
		actions := [2]Action{*b.pending[SideOne], *b.pending[SideTwo]}
		b.pending = [2]*Action{}
		b.resolveTurn(actions)
		b.fillOpponentSwitch()
	}
	return true
}

// SubmitAction is the single-player entry point: a is side one's action
// and the configured opponent answers for side two.
func (b *Battle) SubmitAction(a Action) bool {
	if b.opponent == nil || b.state.Phase != PhaseActionSelect {
		return b.Submit(SideOne, a)
	}
	if !b.state.IsLegal(SideOne, a) || b.pending[SideOne] != nil {
		return false
	}
	if b.pending[SideTwo] == nil {
		b.pending[SideTwo] = ptr(b.opponentAction(SideTwo))
	}
	return b.Submit(SideOne, a)
}

// SubmitActions resolves a turn from both sides' actions at once. Either
// action being illegal rejects both.
func (b *Battle) SubmitActions(one, two Action) bool {
	if b.state.ended() || b.state.Phase != PhaseActionSelect {
		return false
	}
	if b.pending[SideOne] != nil || b.pending[SideTwo] != nil {
		return false
	}
	if !b.state.IsLegal(SideOne, one) || !b.state.IsLegal(SideTwo, two) {
		return false
	}
	b.pending[SideOne] = &one
	return b.Submit(SideTwo, two)
}

// SubmitSwitch chooses the replacement for a side in force_switch, or
// buffers a voluntary switch during action_select.
func (b *Battle) SubmitSwitch(side Side, index int) bool {
	return b.Submit(side, SwitchAction(index))
}

func (b *Battle) opponentAction(side Side) Action {
	view := b.state.Clone()
	a := b.opponent.ChooseAction(&view, side)
	if b.state.IsLegal(side, a) {
		return a
	}
	legal := b.state.LegalActions(side)
	battleLogger().Warn().Int("turn", b.state.Turn).Str("side", side.String()).Msg("opponent chose an illegal action")
	if len(legal) == 0 {
		return a
	}
	return legal[0]
}

func (b *Battle) fillOpponentSwitch() {
	if b.opponent == nil || b.state.Phase != PhaseForceSwitch || !b.state.ForceSwitch[SideTwo] {
		return
	}
	a := b.opponentAction(SideTwo)
	if b.state.IsLegal(SideTwo, a) {
		b.forcedSwitch(SideTwo, a.Index)
	}
}

func (b *Battle) forcedSwitch(side Side, index int) {
	b.switchIn(side, index)
	b.state.ForceSwitch[side] = false
	if !b.state.ForceSwitch[SideOne] && !b.state.ForceSwitch[SideTwo] {
		b.state.Phase = PhaseActionSelect
		b.startTurn()
	}
}

func (b *Battle) startTurn() {
	b.state.Turn++
	b.log(LogEntry{Kind: LogTurn})
}

func (b *Battle) log(e LogEntry) {
	e.Turn = b.state.Turn
	b.state.Log = append(b.state.Log, e)
}

// fieldOrder is both sides, fastest active first. Ties keep side one
// first; only action order uses the coin flip.
func (b *Battle) fieldOrder() [2]Side {
	if b.state.Active(SideTwo).EffectiveSpeed() > b.state.Active(SideOne).EffectiveSpeed() {
		return [2]Side{SideTwo, SideOne}
	}
	return [2]Side{SideOne, SideTwo}
}

// checkEnd moves to ended once a side has nothing left standing.
func (b *Battle) checkEnd() bool {
	oneAlive := b.state.Teams[SideOne].Alive() > 0
	twoAlive := b.state.Teams[SideTwo].Alive() > 0
	switch {
	case oneAlive && twoAlive:
		return false
	case !oneAlive && !twoAlive:
		b.state.Draw = true
		b.log(LogEntry{Kind: LogTie})
	default:
		winner := SideOne
		if !oneAlive {
			winner = SideTwo
		}
		b.state.Winner = &winner
		b.log(LogEntry{Kind: LogWin, Side: winner, Pokemon: b.state.Teams[winner].Name})
	}
	b.state.Phase = PhaseEnded
	b.state.ForceSwitch = [2]bool{}
	b.pending = [2]*Action{}
	battleLogger().Debug().Int("turn", b.state.Turn).Bool("draw", b.state.Draw).Msg("battle ended")
	return true
}

func ptr[T any](v T) *T {
	return &v
}
