package game

import (
	"slices"

	"showdown-battle/data"
)

type Status string

const (
	StatusNone     Status = ""
	StatusBurn     Status = "brn"
	StatusParalyze Status = "par"
	StatusPoison   Status = "psn"
	StatusToxic    Status = "tox"
	StatusSleep    Status = "slp"
	StatusFreeze   Status = "frz"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNone, StatusBurn, StatusParalyze, StatusPoison, StatusToxic, StatusSleep, StatusFreeze:
		return Status(s), true
	}
	switch data.ToID(s) {
	case "none", "healthy":
		return StatusNone, true
	case "burn", "burned":
		return StatusBurn, true
	case "paralyze", "paralyzed", "paralysis":
		return StatusParalyze, true
	case "poison", "poisoned":
		return StatusPoison, true
	case "toxic", "badlypoisoned":
		return StatusToxic, true
	case "sleep", "asleep":
		return StatusSleep, true
	case "freeze", "frozen":
		return StatusFreeze, true
	}
	return StatusNone, false
}

type BattleMove struct {
	Move  data.Move `json:"move"`
	PP    int       `json:"pp"`
	MaxPP int       `json:"maxPp"`
}

// BattlePokemon is the in-battle projection of a TeamSlot. It is created
// fresh for every battle from a copy of the slot.
type BattlePokemon struct {
	Name    string       `json:"name"`
	Slot    TeamSlot     `json:"slot"`
	Species data.Species `json:"species"`
	Types   []Type       `json:"types"`
	Ability string       `json:"ability"`
	Item    string       `json:"item,omitempty"`
	Stats   Stats        `json:"stats"`
	HP      int          `json:"hp"`
	MaxHP   int          `json:"maxHp"`
	Status  Status       `json:"status,omitempty"`

	SleepTurns   int `json:"sleepTurns,omitempty"`
	ToxicCounter int `json:"toxicCounter,omitempty"`
	// Boosts is indexed by Stat; the HP entry is unused.
	Boosts [6]int       `json:"boosts"`
	Moves  []BattleMove `json:"moves"`

	Fainted       bool `json:"fainted"`
	Active        bool `json:"active"`
	MegaEvolved   bool `json:"megaEvolved,omitempty"`
	Terastallized bool `json:"terastallized,omitempty"`
	TeraType      Type `json:"teraType,omitempty"`
	Dynamaxed     bool `json:"dynamaxed,omitempty"`
	DynamaxTurns  int  `json:"dynamaxTurns,omitempty"`
}

func NewBattlePokemon(slot TeamSlot) BattlePokemon {
	slot = slot.clone()
	stats := slot.Stats()
	moves := make([]BattleMove, 0, len(slot.Moves))
	for _, m := range slot.Moves {
		moves = append(moves, BattleMove{Move: m, PP: m.PP, MaxPP: m.PP})
	}
	ability := slot.Ability
	if ability == "" && len(slot.Species.Abilities) > 0 {
		ability = slot.Species.Abilities[0]
	}
	return BattlePokemon{
		Name:     slot.DisplayName(),
		Slot:     slot,
		Species:  slot.Species,
		Types:    typesOf(slot.Species.Types),
		Ability:  ability,
		Item:     slot.Item,
		Stats:    stats,
		HP:       stats.HP,
		MaxHP:    stats.HP,
		Moves:    moves,
		TeraType: slot.TeraType,
	}
}

// DefensiveTypes is the typing used for type-chart lookups against this
// Pokemon: only the Tera type once terastallized.
func (p *BattlePokemon) DefensiveTypes() []Type {
	if p.Terastallized && p.TeraType != TypeNone {
		return []Type{p.TeraType}
	}
	return p.Types
}

func (p *BattlePokemon) HasType(t Type) bool {
	return slices.Contains(p.DefensiveTypes(), t)
}

// HasSTAB reports whether a move of type t gets the same-type bonus. A
// terastallized Pokemon keeps STAB on its original types.
func (p *BattlePokemon) HasSTAB(t Type) bool {
	if t == TypeNone {
		return false
	}
	if p.Terastallized && p.TeraType == t {
		return true
	}
	return slices.Contains(p.Types, t)
}

func (p *BattlePokemon) hasAbility(id string) bool {
	return data.ToID(p.Ability) == id
}

func (p *BattlePokemon) hasItem(id string) bool {
	return data.ToID(p.Item) == id
}

// EffectiveSpeed is the speed used for turn order.
func (p *BattlePokemon) EffectiveSpeed() int {
	speed := ApplyStage(p.Stats.Speed, p.Boosts[StatSpeed])
	if p.hasItem("choicescarf") {
		speed = speed * 3 / 2
	}
	if p.Status == StatusParalyze && !p.hasAbility("quickfeet") {
		speed /= 2
	}
	if p.Status != StatusNone && p.hasAbility("quickfeet") {
		speed = speed * 3 / 2
	}
	return speed
}

func (p *BattlePokemon) CanUseMove(index int) bool {
	if p.Fainted || index < 0 || index >= len(p.Moves) {
		return false
	}
	return p.Moves[index].PP > 0
}

// HasUsableMove is false once every move is out of PP; the Pokemon can
// then only Struggle.
func (p *BattlePokemon) HasUsableMove() bool {
	for i := range p.Moves {
		if p.Moves[i].PP > 0 {
			return true
		}
	}
	return false
}

// takeDamage lowers HP, never below zero, and returns the HP actually lost.
func (p *BattlePokemon) takeDamage(amount int) int {
	if amount <= 0 || p.Fainted {
		return 0
	}
	if amount > p.HP {
		amount = p.HP
	}
	p.HP -= amount
	return amount
}

// heal raises HP, never above max, and returns the HP actually restored.
func (p *BattlePokemon) heal(amount int) int {
	if amount <= 0 || p.Fainted {
		return 0
	}
	if p.HP+amount > p.MaxHP {
		amount = p.MaxHP - p.HP
	}
	p.HP += amount
	return amount
}

func (p *BattlePokemon) fraction(num, den int) int {
	v := p.MaxHP * num / den
	if v < 1 {
		v = 1
	}
	return v
}

func (p *BattlePokemon) resetVolatiles() {
	p.Boosts = [6]int{}
	if p.Status == StatusToxic {
		p.ToxicCounter = 1
	}
}

func (p BattlePokemon) clone() BattlePokemon {
	out := p
	out.Slot = p.Slot.clone()
	out.Types = append([]Type(nil), p.Types...)
	out.Moves = append([]BattleMove(nil), p.Moves...)
	return out
}
