package game

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"showdown-battle/data"
)

type Type string

const (
	TypeNone     Type = ""
	TypeNormal   Type = "Normal"
	TypeFire     Type = "Fire"
	TypeWater    Type = "Water"
	TypeElectric Type = "Electric"
	TypeGrass    Type = "Grass"
	TypeIce      Type = "Ice"
	TypeFighting Type = "Fighting"
	TypePoison   Type = "Poison"
	TypeGround   Type = "Ground"
	TypeFlying   Type = "Flying"
	TypePsychic  Type = "Psychic"
	TypeBug      Type = "Bug"
	TypeRock     Type = "Rock"
	TypeGhost    Type = "Ghost"
	TypeDragon   Type = "Dragon"
	TypeDark     Type = "Dark"
	TypeSteel    Type = "Steel"
	TypeFairy    Type = "Fairy"
)

var AllTypes = typesOf(data.TypeNames)

// typeChart lists every attack -> defense pair that is not neutral.
var typeChart = map[Type]map[Type]float64{
	TypeNormal: {
		TypeRock: 0.5, TypeGhost: 0, TypeSteel: 0.5,
	},
	TypeFire: {
		TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 2, TypeBug: 2, TypeRock: 0.5, TypeDragon: 0.5, TypeSteel: 2,
	},
	TypeWater: {
		TypeFire: 2, TypeWater: 0.5, TypeGrass: 0.5, TypeGround: 2, TypeRock: 2, TypeDragon: 0.5,
	},
	TypeElectric: {
		TypeWater: 2, TypeElectric: 0.5, TypeGrass: 0.5, TypeGround: 0, TypeFlying: 2, TypeDragon: 0.5,
	},
	TypeGrass: {
		TypeFire: 0.5, TypeWater: 2, TypeGrass: 0.5, TypePoison: 0.5, TypeGround: 2, TypeFlying: 0.5, TypeBug: 0.5, TypeRock: 2, TypeDragon: 0.5, TypeSteel: 0.5,
	},
	TypeIce: {
		TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 0.5, TypeGround: 2, TypeFlying: 2, TypeDragon: 2, TypeSteel: 0.5,
	},
	TypeFighting: {
		TypeNormal: 2, TypeIce: 2, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 0.5, TypeBug: 0.5, TypeRock: 2, TypeGhost: 0, TypeDark: 2, TypeSteel: 2, TypeFairy: 0.5,
	},
	TypePoison: {
		TypeGrass: 2, TypePoison: 0.5, TypeGround: 0.5, TypeRock: 0.5, TypeGhost: 0.5, TypeSteel: 0, TypeFairy: 2,
	},
	TypeGround: {
		TypeFire: 2, TypeElectric: 2, TypeGrass: 0.5, TypePoison: 2, TypeFlying: 0, TypeBug: 0.5, TypeRock: 2, TypeSteel: 2,
	},
	TypeFlying: {
		TypeElectric: 0.5, TypeGrass: 2, TypeFighting: 2, TypeBug: 2, TypeRock: 0.5, TypeSteel: 0.5,
	},
	TypePsychic: {
		TypeFighting: 2, TypePoison: 2, TypePsychic: 0.5, TypeDark: 0, TypeSteel: 0.5,
	},
	TypeBug: {
		TypeFire: 0.5, TypeGrass: 2, TypeFighting: 0.5, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 2, TypeGhost: 0.5, TypeDark: 2, TypeSteel: 0.5, TypeFairy: 0.5,
	},
	TypeRock: {
		TypeFire: 2, TypeIce: 2, TypeFighting: 0.5, TypeGround: 0.5, TypeFlying: 2, TypeBug: 2, TypeSteel: 0.5,
	},
	TypeGhost: {
		TypeNormal: 0, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5,
	},
	TypeDragon: {
		TypeDragon: 2, TypeSteel: 0.5, TypeFairy: 0,
	},
	TypeDark: {
		TypeFighting: 0.5, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5, TypeFairy: 0.5,
	},
	TypeSteel: {
		TypeFire: 0.5, TypeWater: 0.5, TypeElectric: 0.5, TypeIce: 2, TypeRock: 2, TypeSteel: 0.5, TypeFairy: 2,
	},
	TypeFairy: {
		TypeFire: 0.5, TypeFighting: 2, TypePoison: 0.5, TypeDragon: 2, TypeDark: 2, TypeSteel: 0.5,
	},
}

// Effectiveness multiplies the chart entry for attack against every
// defending type. Typeless attacks (Struggle) are always neutral.
func Effectiveness(attack Type, defense ...Type) float64 {
	eff := 1.0
	row, ok := typeChart[attack]
	if !ok {
		return eff
	}
	for _, t := range defense {
		if v, ok := row[t]; ok {
			eff *= v
		}
	}
	return eff
}

func EffectivenessLabel(eff float64) string {
	switch {
	case eff == 0:
		return "no effect"
	case eff > 1:
		return "super effective"
	case eff < 1:
		return "not very effective"
	default:
		return "neutral"
	}
}

// ParseType accepts any casing ("fire", "FIRE", "Fire").
func ParseType(s string) (Type, bool) {
	t := Type(cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s))))
	if _, ok := typeChart[t]; ok {
		return t, true
	}
	return TypeNone, false
}

func typesOf(names []string) []Type {
	out := make([]Type, 0, len(names))
	for _, n := range names {
		out = append(out, Type(n))
	}
	return out
}
