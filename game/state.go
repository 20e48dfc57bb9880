package game

import (
	"encoding/json"
	"fmt"
)

type Phase string

const (
	PhaseSetup        Phase = "setup"
	PhaseActionSelect Phase = "action_select"
	PhaseForceSwitch  Phase = "force_switch"
	PhaseEnded        Phase = "ended"
)

type Side int

const (
	SideOne Side = 0
	SideTwo Side = 1
)

func (s Side) Opponent() Side {
	return 1 - s
}

func (s Side) valid() bool {
	return s == SideOne || s == SideTwo
}

// String is the Showdown player id, "p1" or "p2".
func (s Side) String() string {
	return fmt.Sprintf("p%d", int(s)+1)
}

type Weather string

const (
	WeatherNone Weather = ""
	WeatherRain Weather = "rain"
	WeatherSun  Weather = "sun"
	WeatherSand Weather = "sand"
	WeatherSnow Weather = "snow"
)

// WeatherDuration is how many turns weather set by a move or ability lasts.
const WeatherDuration = 5

func ParseWeather(s string) (Weather, bool) {
	switch Weather(s) {
	case WeatherNone, WeatherRain, WeatherSun, WeatherSand, WeatherSnow:
		return Weather(s), true
	}
	return WeatherNone, false
}

type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionSwitch ActionKind = "switch"
)

// StruggleIndex is the move index of Struggle, only legal once every move
// is out of PP.
const StruggleIndex = -1

// Action is what one side does in a turn. For moves, Index is the move
// slot and Mechanic optionally activates the team's generational mechanic
// before the move. For switches, Index is the team position to bring in.
type Action struct {
	Kind     ActionKind
	Index    int
	Mechanic Mechanic
}

func MoveAction(index int) Action {
	return Action{Kind: ActionMove, Index: index}
}

func MoveWithMechanic(index int, m Mechanic) Action {
	return Action{Kind: ActionMove, Index: index, Mechanic: m}
}

func SwitchAction(index int) Action {
	return Action{Kind: ActionSwitch, Index: index}
}

func StruggleAction() Action {
	return Action{Kind: ActionMove, Index: StruggleIndex}
}

type actionJSON struct {
	Kind     ActionKind   `json:"kind"`
	Index    int          `json:"index"`
	Mechanic MechanicKind `json:"mechanic,omitempty"`
	TeraType Type         `json:"teraType,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	w := actionJSON{Kind: a.Kind, Index: a.Index, Mechanic: MechanicKindOf(a.Mechanic)}
	if m, ok := a.Mechanic.(Terastallize); ok {
		w.TeraType = m.Type
	}
	return json.Marshal(w)
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var w actionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Kind {
	case ActionMove, ActionSwitch:
	default:
		return fmt.Errorf("unknown action kind %q", w.Kind)
	}
	kind, ok := ParseMechanicKind(string(w.Mechanic))
	if !ok {
		return fmt.Errorf("unknown mechanic %q", w.Mechanic)
	}
	*a = Action{Kind: w.Kind, Index: w.Index}
	switch kind {
	case MechanicMega:
		a.Mechanic = MegaEvolution{}
	case MechanicTera:
		a.Mechanic = Terastallize{Type: w.TeraType}
	case MechanicDynamax:
		a.Mechanic = Dynamax{Turns: DynamaxTurns}
	}
	return nil
}

// BattleTeam is one side of a battle. Mechanic is the one generational
// mechanic the team may use; MechanicUsed records that it has been spent.
type BattleTeam struct {
	Name         string          `json:"name"`
	Pokemon      []BattlePokemon `json:"pokemon"`
	Active       int             `json:"active"`
	Mechanic     MechanicKind    `json:"mechanic,omitempty"`
	MechanicUsed bool            `json:"mechanicUsed,omitempty"`
}

func (t *BattleTeam) ActivePokemon() *BattlePokemon {
	if t.Active < 0 || t.Active >= len(t.Pokemon) {
		return nil
	}
	return &t.Pokemon[t.Active]
}

func (t *BattleTeam) Alive() int {
	n := 0
	for i := range t.Pokemon {
		if !t.Pokemon[i].Fainted {
			n++
		}
	}
	return n
}

func (t *BattleTeam) hasReserve() bool {
	for i := range t.Pokemon {
		if i != t.Active && !t.Pokemon[i].Fainted {
			return true
		}
	}
	return false
}

func (t *BattleTeam) canSwitchTo(index int) bool {
	if index < 0 || index >= len(t.Pokemon) || index == t.Active {
		return false
	}
	return !t.Pokemon[index].Fainted
}

func (t *BattleTeam) canUseMechanic(m Mechanic) bool {
	return m != nil && !t.MechanicUsed && t.Mechanic != MechanicNone && t.Mechanic == m.Kind()
}

func (t BattleTeam) clone() BattleTeam {
	out := t
	out.Pokemon = make([]BattlePokemon, len(t.Pokemon))
	for i, p := range t.Pokemon {
		out.Pokemon[i] = p.clone()
	}
	return out
}

// BattleState is the whole observable state of one battle. It is owned by
// a Battle; everything else sees copies from Battle.State.
type BattleState struct {
	Teams        [2]BattleTeam `json:"teams"`
	Turn         int           `json:"turn"`
	Phase        Phase         `json:"phase"`
	ForceSwitch  [2]bool       `json:"forceSwitch"`
	Weather      Weather       `json:"weather,omitempty"`
	WeatherTurns int           `json:"weatherTurns,omitempty"`
	Log          []LogEntry    `json:"log"`
	Winner       *Side         `json:"winner,omitempty"`
	Draw         bool          `json:"draw,omitempty"`
}

func (s *BattleState) Clone() BattleState {
	out := *s
	for i := range s.Teams {
		out.Teams[i] = s.Teams[i].clone()
	}
	out.Log = append([]LogEntry(nil), s.Log...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}

func (s *BattleState) Active(side Side) *BattlePokemon {
	if !side.valid() {
		return nil
	}
	return s.Teams[side].ActivePokemon()
}

// IsLegal reports whether side may submit a right now.
func (s *BattleState) IsLegal(side Side, a Action) bool {
	if !side.valid() {
		return false
	}
	team := &s.Teams[side]
	switch s.Phase {
	case PhaseActionSelect:
	case PhaseForceSwitch:
		return s.ForceSwitch[side] && a.Kind == ActionSwitch && a.Mechanic == nil && team.canSwitchTo(a.Index)
	default:
		return false
	}

	active := team.ActivePokemon()
	if active == nil || active.Fainted {
		return false
	}
	switch a.Kind {
	case ActionSwitch:
		return a.Mechanic == nil && team.canSwitchTo(a.Index)
	case ActionMove:
		if a.Index == StruggleIndex {
			return a.Mechanic == nil && !active.HasUsableMove()
		}
		if !active.CanUseMove(a.Index) {
			return false
		}
		if a.Mechanic != nil {
			return team.canUseMechanic(a.Mechanic) && canActivate(active, a.Mechanic)
		}
		return true
	}
	return false
}

// LegalActions lists every action side may submit right now. Tera is
// offered with the slot's configured type.
func (s *BattleState) LegalActions(side Side) []Action {
	if !side.valid() {
		return nil
	}
	team := &s.Teams[side]
	var out []Action
	switches := func() {
		for i := range team.Pokemon {
			if team.canSwitchTo(i) {
				out = append(out, SwitchAction(i))
			}
		}
	}

	switch s.Phase {
	case PhaseForceSwitch:
		if s.ForceSwitch[side] {
			switches()
		}
		return out
	case PhaseActionSelect:
	default:
		return nil
	}

	active := team.ActivePokemon()
	if active == nil || active.Fainted {
		return nil
	}
	if !active.HasUsableMove() {
		out = append(out, StruggleAction())
	}
	mech := NewMechanic(team.Mechanic, TypeNone)
	offerMechanic := team.canUseMechanic(mech) && canActivate(active, mech)
	for i := range active.Moves {
		if !active.CanUseMove(i) {
			continue
		}
		out = append(out, MoveAction(i))
		if offerMechanic {
			out = append(out, MoveWithMechanic(i, mech))
		}
	}
	switches()
	return out
}

func (s *BattleState) ended() bool {
	return s.Phase == PhaseEnded
}
