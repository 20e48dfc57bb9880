package game

type MechanicKind string

const (
	MechanicNone    MechanicKind = ""
	MechanicMega    MechanicKind = "mega"
	MechanicTera    MechanicKind = "tera"
	MechanicDynamax MechanicKind = "dynamax"
)

func ParseMechanicKind(s string) (MechanicKind, bool) {
	switch MechanicKind(s) {
	case MechanicNone, MechanicMega, MechanicTera, MechanicDynamax:
		return MechanicKind(s), true
	}
	return MechanicNone, false
}

// DynamaxTurns is how many turns a Dynamax lasts, counting the turn it
// starts on.
const DynamaxTurns = 3

// Mechanic is one of MegaEvolution, Terastallize or Dynamax. A nil
// Mechanic means none; no other implementations exist.
type Mechanic interface {
	Kind() MechanicKind
	sealed()
}

type MegaEvolution struct{}

// Terastallize carries the type to become. TypeNone uses the slot's
// configured Tera type.
type Terastallize struct {
	Type Type
}

// Dynamax carries the number of turns it lasts. Zero means DynamaxTurns.
type Dynamax struct {
	Turns int
}

func (MegaEvolution) Kind() MechanicKind { return MechanicMega }
func (Terastallize) Kind() MechanicKind  { return MechanicTera }
func (Dynamax) Kind() MechanicKind       { return MechanicDynamax }

func (MegaEvolution) sealed() {}
func (Terastallize) sealed()  {}
func (Dynamax) sealed()       {}

func MechanicKindOf(m Mechanic) MechanicKind {
	if m == nil {
		return MechanicNone
	}
	return m.Kind()
}

// NewMechanic builds the variant for kind. teraType is only read for Tera.
func NewMechanic(kind MechanicKind, teraType Type) Mechanic {
	switch kind {
	case MechanicMega:
		return MegaEvolution{}
	case MechanicTera:
		return Terastallize{Type: teraType}
	case MechanicDynamax:
		return Dynamax{Turns: DynamaxTurns}
	}
	return nil
}

// canActivate reports whether p may use m right now, ignoring the
// once-per-team bookkeeping the battle keeps.
func canActivate(p *BattlePokemon, m Mechanic) bool {
	if p.Fainted {
		return false
	}
	switch v := m.(type) {
	case MegaEvolution:
		return !p.MegaEvolved && p.Slot.Forme != nil
	case Terastallize:
		t := v.Type
		switch {
		case t == TypeNone:
			t = p.Slot.TeraType
		case p.Slot.TeraType != TypeNone && t != p.Slot.TeraType:
			return false
		}
		_, known := typeChart[t]
		return !p.Terastallized && known
	case Dynamax:
		return !p.Dynamaxed && (v.Turns == 0 || v.Turns == DynamaxTurns)
	}
	return false
}

// activate applies m to p. Stat and typing changes take effect at once so
// the same turn's damage sees them.
func activate(p *BattlePokemon, m Mechanic) {
	switch v := m.(type) {
	case MegaEvolution:
		megaEvolve(p)
	case Terastallize:
		t := v.Type
		if t == TypeNone {
			t = p.Slot.TeraType
		}
		p.Terastallized = true
		p.TeraType = t
	case Dynamax:
		turns := v.Turns
		if turns == 0 {
			turns = DynamaxTurns
		}
		p.Dynamaxed = true
		p.DynamaxTurns = turns
		p.MaxHP *= 2
		p.HP *= 2
	}
}

func megaEvolve(p *BattlePokemon) {
	forme := *p.Slot.Forme
	p.Species = forme
	p.Types = typesOf(forme.Types)
	if len(forme.Abilities) > 0 {
		p.Ability = forme.Abilities[0]
	}
	stats := ComputeAllStats(StatsFromBase(forme.BaseStats), p.Slot.IVs, p.Slot.EVs, p.Slot.level(), p.Slot.Nature)
	// HP does not change on mega evolution.
	stats.HP = p.Stats.HP
	p.Stats = stats
	p.MegaEvolved = true
}

// endDynamax restores normal HP, keeping the same proportion of health.
func endDynamax(p *BattlePokemon) {
	if !p.Dynamaxed {
		return
	}
	p.Dynamaxed = false
	p.DynamaxTurns = 0
	p.MaxHP /= 2
	if !p.Fainted {
		p.HP = (p.HP + 1) / 2
		if p.HP < 1 {
			p.HP = 1
		}
	}
}

// MaxMovePower converts a damaging move's power for a Dynamaxed user.
func MaxMovePower(power int, t Type) int {
	weak := t == TypeFighting || t == TypePoison
	steps := []struct {
		upTo         int
		normal, weak int
	}{
		{40, 90, 70},
		{50, 100, 75},
		{60, 110, 80},
		{70, 120, 85},
		{100, 130, 90},
		{140, 140, 95},
	}
	for _, s := range steps {
		if power <= s.upTo {
			if weak {
				return s.weak
			}
			return s.normal
		}
	}
	if weak {
		return 100
	}
	return 150
}
