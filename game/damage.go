package game

import (
	"fmt"

	"showdown-battle/data"
)

// StatModifier adjusts an attacking or defending stat: first scaled by
// Percent (100 = unchanged, 0 treated as 100), then shifted by Flat.
type StatModifier struct {
	Percent int `json:"percent,omitempty"`
	Flat    int `json:"flat,omitempty"`
}

func (m StatModifier) apply(v int) int {
	if m.Percent > 0 {
		v = v * m.Percent / 100
	}
	v += m.Flat
	if v < 1 {
		v = 1
	}
	return v
}

type DamageConfig struct {
	// Level overrides the attacker's level; zero uses the attacker's slot.
	Level    int     `json:"level,omitempty"`
	Critical bool    `json:"critical,omitempty"`
	Weather  Weather `json:"weather,omitempty"`

	AttackModifier  StatModifier `json:"attackModifier,omitempty"`
	DefenseModifier StatModifier `json:"defenseModifier,omitempty"`

	// IgnoreDefenderEffects skips the defender's ability and item, for
	// callers that only know the opposing species.
	IgnoreDefenderEffects bool `json:"ignoreDefenderEffects,omitempty"`
}

type DamageResult struct {
	Min           int     `json:"min"`
	Max           int     `json:"max"`
	Effectiveness float64 `json:"effectiveness"`
	STAB          bool    `json:"stab"`
	Critical      bool    `json:"critical"`
}

// Label describes the range as a percentage of hp, e.g. "84 - 100 (40.2% - 47.8%)".
func (r DamageResult) Label(hp int) string {
	if hp <= 0 {
		return fmt.Sprintf("%d - %d", r.Min, r.Max)
	}
	return fmt.Sprintf("%d - %d (%.1f%% - %.1f%%)", r.Min, r.Max,
		float64(r.Min)*100/float64(hp), float64(r.Max)*100/float64(hp))
}

const (
	minRoll = 85
	maxRoll = 100
)

// abilityImmunities maps a defending ability id to the move type it absorbs.
var abilityImmunities = map[string]Type{
	"levitate":      TypeGround,
	"flashfire":     TypeFire,
	"waterabsorb":   TypeWater,
	"stormdrain":    TypeWater,
	"voltabsorb":    TypeElectric,
	"lightningrod":  TypeElectric,
	"motordrive":    TypeElectric,
	"sapsipper":     TypeGrass,
	"dryskin":       TypeWater,
	"wellbakedbody": TypeFire,
}

// MoveEffectiveness is the multiplier move would have against def,
// including ability and item immunities unless ignoreEffects is set.
func MoveEffectiveness(move data.Move, def *BattlePokemon, ignoreEffects bool) float64 {
	t := Type(move.Type)
	if move.ID == "struggle" {
		return 1
	}
	if !ignoreEffects {
		if immune, ok := abilityImmunities[data.ToID(def.Ability)]; ok && immune == t {
			return 0
		}
		if t == TypeGround && def.hasItem("airballoon") {
			return 0
		}
	}
	return Effectiveness(t, def.DefensiveTypes()...)
}

// CalculateDamage is the damage range att deals to def with move. Every
// step floors before the next one runs; the order is significant.
func CalculateDamage(att, def *BattlePokemon, move data.Move, cfg DamageConfig) DamageResult {
	moveType := Type(move.Type)
	if move.ID == "struggle" {
		moveType = TypeNone
	}
	eff := MoveEffectiveness(move, def, cfg.IgnoreDefenderEffects)
	res := DamageResult{Effectiveness: eff}
	if move.IsStatus() {
		return res
	}

	physical := move.Category == data.Physical
	atkStat, defStat := StatSpAttack, StatSpDefense
	if physical {
		atkStat, defStat = StatAttack, StatDefense
	}
	atkStage := att.Boosts[atkStat]
	defStage := def.Boosts[defStat]
	if cfg.Critical {
		atkStage = max(atkStage, 0)
		defStage = min(defStage, 0)
	}
	attack := ApplyStage(att.Stats.Get(atkStat), atkStage)
	defense := ApplyStage(def.Stats.Get(defStat), defStage)

	switch {
	case physical && att.hasAbility("guts") && att.Status != StatusNone:
		attack = attack * 3 / 2
	case physical && att.Status == StatusBurn:
		attack /= 2
	}
	if physical && (att.hasAbility("hugepower") || att.hasAbility("purepower")) {
		attack *= 2
	}
	if (physical && att.hasItem("choiceband")) || (!physical && att.hasItem("choicespecs")) {
		attack = attack * 3 / 2
	}
	if !cfg.IgnoreDefenderEffects && def.hasAbility("thickfat") && (moveType == TypeFire || moveType == TypeIce) {
		attack /= 2
	}

	if !physical && !cfg.IgnoreDefenderEffects && def.hasItem("assaultvest") {
		defense = defense * 3 / 2
	}
	if physical && cfg.Weather == WeatherSnow && def.HasType(TypeIce) {
		defense = defense * 3 / 2
	}
	if !physical && cfg.Weather == WeatherSand && def.HasType(TypeRock) {
		defense = defense * 3 / 2
	}

	attack = cfg.AttackModifier.apply(attack)
	defense = cfg.DefenseModifier.apply(defense)

	level := cfg.Level
	if level <= 0 {
		level = att.Slot.level()
	}
	power := move.Power
	if att.Dynamaxed {
		power = MaxMovePower(power, moveType)
	}

	x := (2*level/5+2)*power*attack/defense/50 + 2

	switch {
	case cfg.Weather == WeatherRain && moveType == TypeWater,
		cfg.Weather == WeatherSun && moveType == TypeFire:
		x = x * 3 / 2
	case cfg.Weather == WeatherRain && moveType == TypeFire,
		cfg.Weather == WeatherSun && moveType == TypeWater:
		x /= 2
	}

	if att.HasSTAB(moveType) {
		res.STAB = true
		if att.hasAbility("adaptability") {
			x *= 2
		} else {
			x = x * 3 / 2
		}
	}

	if eff == 0 {
		return DamageResult{Effectiveness: 0, STAB: res.STAB}
	}
	x = int(float64(x) * eff)

	if cfg.Critical {
		res.Critical = true
		x = x * 3 / 2
	}

	if att.hasItem("lifeorb") {
		x = x * 13 / 10
	}
	if eff > 1 && att.hasItem("expertbelt") {
		x = x * 12 / 10
	}

	res.Max = applyRoll(x, maxRoll)
	res.Min = applyRoll(x, minRoll)
	return res
}

func applyRoll(x, r int) int {
	v := x * r / 100
	if v < 1 {
		v = 1
	}
	return v
}

// DamageRolls lists all sixteen concrete outcomes of res, lowest first.
func DamageRolls(res DamageResult) []int {
	if res.Max == 0 {
		return nil
	}
	rolls := make([]int, 0, maxRoll-minRoll+1)
	for r := minRoll; r <= maxRoll; r++ {
		rolls = append(rolls, applyRoll(res.Max, r))
	}
	return rolls
}

// RollDamage draws the one concrete amount a turn deals from res.
func RollDamage(res DamageResult, rng RNG) int {
	if res.Max == 0 {
		return 0
	}
	return applyRoll(res.Max, minRoll+rng.IntN(maxRoll-minRoll+1))
}
