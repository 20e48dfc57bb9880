package game

import (
	"encoding/json"
	"strings"

	"showdown-battle/data"
)

type Stat int

const (
	StatHP Stat = iota
	StatAttack
	StatDefense
	StatSpAttack
	StatSpDefense
	StatSpeed
)

var AllStats = []Stat{StatHP, StatAttack, StatDefense, StatSpAttack, StatSpDefense, StatSpeed}

// Labels as they appear on a Showdown "EVs:" line.
var statLabels = [...]string{"HP", "Atk", "Def", "SpA", "SpD", "Spe"}

// Keys as they appear in Showdown data ("boosts": {"atk": 2}).
var statKeys = [...]string{"hp", "atk", "def", "spa", "spd", "spe"}

func (s Stat) String() string {
	if s < StatHP || s > StatSpeed {
		return "?"
	}
	return statLabels[s]
}

func (s Stat) Key() string {
	if s < StatHP || s > StatSpeed {
		return ""
	}
	return statKeys[s]
}

// ParseStat accepts both "SpA" style labels and "spa" style keys.
func ParseStat(label string) (Stat, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for i, key := range statKeys {
		if label == key {
			return Stat(i), true
		}
	}
	return StatHP, false
}

const (
	MaxIV        = 31
	MaxEV        = 252
	MaxTotalEV   = 510
	DefaultLevel = 50
	MaxLevel     = 100
)

type Stats struct {
	HP        int `json:"hp"`
	Attack    int `json:"atk"`
	Defense   int `json:"def"`
	SpAttack  int `json:"spa"`
	SpDefense int `json:"spd"`
	Speed     int `json:"spe"`
}

func StatsFromBase(b data.Stats) Stats {
	return Stats{HP: b.HP, Attack: b.Atk, Defense: b.Def, SpAttack: b.SpA, SpDefense: b.SpD, Speed: b.Spe}
}

func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatHP:
		return s.HP
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpAttack:
		return s.SpAttack
	case StatSpDefense:
		return s.SpDefense
	case StatSpeed:
		return s.Speed
	}
	return 0
}

func (s *Stats) set(stat Stat, v int) {
	switch stat {
	case StatHP:
		s.HP = v
	case StatAttack:
		s.Attack = v
	case StatDefense:
		s.Defense = v
	case StatSpAttack:
		s.SpAttack = v
	case StatSpDefense:
		s.SpDefense = v
	case StatSpeed:
		s.Speed = v
	}
}

func (s Stats) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpAttack + s.SpDefense + s.Speed
}

// EVSpread can only be written through Set, which keeps every field within
// [0, MaxEV] and the total within MaxTotalEV.
type EVSpread struct {
	v [6]int
}

// Set stores value for stat, reducing it as far as needed to respect both
// caps, and returns what was stored.
func (e *EVSpread) Set(stat Stat, value int) int {
	if stat < StatHP || stat > StatSpeed {
		return 0
	}
	value = clamp(value, 0, MaxEV)
	room := MaxTotalEV - (e.Total() - e.v[stat])
	if value > room {
		value = room
	}
	e.v[stat] = value
	return value
}

func (e EVSpread) Get(stat Stat) int {
	if stat < StatHP || stat > StatSpeed {
		return 0
	}
	return e.v[stat]
}

func (e EVSpread) Total() int {
	total := 0
	for _, v := range e.v {
		total += v
	}
	return total
}

func (e EVSpread) Stats() Stats {
	var s Stats
	for _, stat := range AllStats {
		s.set(stat, e.v[stat])
	}
	return s
}

func (e EVSpread) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Stats())
}

func (e *EVSpread) UnmarshalJSON(b []byte) error {
	var s Stats
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*e = EVSpread{}
	for _, stat := range AllStats {
		e.Set(stat, s.Get(stat))
	}
	return nil
}

// IVSpread can only be written through Set, which clamps to [0, MaxIV].
type IVSpread struct {
	v [6]int
}

func UniformIVs(value int) IVSpread {
	var ivs IVSpread
	for _, stat := range AllStats {
		ivs.Set(stat, value)
	}
	return ivs
}

func PerfectIVs() IVSpread {
	return UniformIVs(MaxIV)
}

func (iv *IVSpread) Set(stat Stat, value int) int {
	if stat < StatHP || stat > StatSpeed {
		return 0
	}
	iv.v[stat] = clamp(value, 0, MaxIV)
	return iv.v[stat]
}

func (iv IVSpread) Get(stat Stat) int {
	if stat < StatHP || stat > StatSpeed {
		return 0
	}
	return iv.v[stat]
}

func (iv IVSpread) Stats() Stats {
	var s Stats
	for _, stat := range AllStats {
		s.set(stat, iv.v[stat])
	}
	return s
}

func (iv IVSpread) MarshalJSON() ([]byte, error) {
	return json.Marshal(iv.Stats())
}

func (iv *IVSpread) UnmarshalJSON(b []byte) error {
	s := PerfectIVs().Stats()
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, stat := range AllStats {
		iv.Set(stat, s.Get(stat))
	}
	return nil
}

// NatureModifier is a nature multiplier in tenths, so the formula stays in
// integer arithmetic and a neutral nature can never drift.
type NatureModifier int

const (
	NatureDrop    NatureModifier = 9
	NatureNeutral NatureModifier = 10
	NatureBoost   NatureModifier = 11
)

// Nature raises Plus by 10% and lowers Minus by 10%. Natures where both
// point at the same stat are neutral.
type Nature struct {
	Name  string
	Plus  Stat
	Minus Stat
}

func (n Nature) IsNeutral() bool {
	return n.Plus == n.Minus
}

func (n Nature) Modifier(stat Stat) NatureModifier {
	switch {
	case n.IsNeutral() || stat == StatHP:
		return NatureNeutral
	case stat == n.Plus:
		return NatureBoost
	case stat == n.Minus:
		return NatureDrop
	}
	return NatureNeutral
}

func (n Nature) MarshalText() ([]byte, error) {
	return []byte(n.Name), nil
}

func (n *Nature) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*n = NeutralNature
		return nil
	}
	if found, ok := LookupNature(string(b)); ok {
		*n = found
		return nil
	}
	*n = NeutralNature
	return nil
}

var NeutralNature = Nature{Name: "Serious", Plus: StatSpeed, Minus: StatSpeed}

var natures = []Nature{
	{"Hardy", StatAttack, StatAttack},
	{"Lonely", StatAttack, StatDefense},
	{"Brave", StatAttack, StatSpeed},
	{"Adamant", StatAttack, StatSpAttack},
	{"Naughty", StatAttack, StatSpDefense},
	{"Bold", StatDefense, StatAttack},
	{"Docile", StatDefense, StatDefense},
	{"Relaxed", StatDefense, StatSpeed},
	{"Impish", StatDefense, StatSpAttack},
	{"Lax", StatDefense, StatSpDefense},
	{"Timid", StatSpeed, StatAttack},
	{"Hasty", StatSpeed, StatDefense},
	{"Serious", StatSpeed, StatSpeed},
	{"Jolly", StatSpeed, StatSpAttack},
	{"Naive", StatSpeed, StatSpDefense},
	{"Modest", StatSpAttack, StatAttack},
	{"Mild", StatSpAttack, StatDefense},
	{"Quiet", StatSpAttack, StatSpeed},
	{"Bashful", StatSpAttack, StatSpAttack},
	{"Rash", StatSpAttack, StatSpDefense},
	{"Calm", StatSpDefense, StatAttack},
	{"Gentle", StatSpDefense, StatDefense},
	{"Sassy", StatSpDefense, StatSpeed},
	{"Careful", StatSpDefense, StatSpAttack},
	{"Quirky", StatSpDefense, StatSpDefense},
}

func Natures() []Nature {
	out := make([]Nature, len(natures))
	copy(out, natures)
	return out
}

func LookupNature(name string) (Nature, bool) {
	name = strings.TrimSpace(name)
	for _, n := range natures {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Nature{}, false
}

// ComputeStat derives a non-HP stat:
// floor((floor((2*base + iv + floor(ev/4)) * level / 100) + 5) * nature).
func ComputeStat(base, iv, ev, level int, mod NatureModifier) int {
	raw := (2*base+iv+ev/4)*level/100 + 5
	return raw * int(mod) / 10
}

// ComputeHP derives max HP. A base of 1 always yields 1 HP.
func ComputeHP(base, iv, ev, level int) int {
	if base == 1 {
		return 1
	}
	return (2*base+iv+ev/4)*level/100 + level + 10
}

func ComputeAllStats(base Stats, ivs IVSpread, evs EVSpread, level int, nature Nature) Stats {
	if level <= 0 {
		level = DefaultLevel
	}
	out := Stats{
		HP: ComputeHP(base.HP, ivs.Get(StatHP), evs.Get(StatHP), level),
	}
	for _, stat := range AllStats[1:] {
		out.set(stat, ComputeStat(base.Get(stat), ivs.Get(stat), evs.Get(stat), level, nature.Modifier(stat)))
	}
	return out
}

const (
	MinStage = -6
	MaxStage = 6
)

// ApplyStage scales value by the stat-stage multiplier (2+n)/2 or 2/(2+n).
func ApplyStage(value, stage int) int {
	stage = clamp(stage, MinStage, MaxStage)
	if stage >= 0 {
		return value * (2 + stage) / 2
	}
	return value * 2 / (2 - stage)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
