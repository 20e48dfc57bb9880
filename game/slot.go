package game

import (
	"showdown-battle/data"
)

const (
	MaxMoves    = 4
	MaxTeamSize = 6
)

// TeamSlot is one configured Pokemon on a roster.
type TeamSlot struct {
	Species  data.Species  `json:"species"`
	Nickname string        `json:"nickname,omitempty"`
	Level    int           `json:"level"`
	Nature   Nature        `json:"nature"`
	EVs      EVSpread      `json:"evs"`
	IVs      IVSpread      `json:"ivs"`
	Ability  string        `json:"ability,omitempty"`
	Item     string        `json:"item,omitempty"`
	Moves    []data.Move   `json:"moves"`
	Forme    *data.Species `json:"forme,omitempty"`
	TeraType Type          `json:"teraType,omitempty"`
}

// NewTeamSlot returns the defaults a freshly added roster entry gets:
// level 50, neutral nature, no EVs, perfect IVs, first listed ability.
func NewTeamSlot(species data.Species) TeamSlot {
	slot := TeamSlot{
		Species: species,
		Level:   DefaultLevel,
		Nature:  NeutralNature,
		IVs:     PerfectIVs(),
	}
	if len(species.Abilities) > 0 {
		slot.Ability = species.Abilities[0]
	}
	return slot
}

// AddMove appends m unless the slot is full or already knows it.
func (s *TeamSlot) AddMove(m data.Move) bool {
	if len(s.Moves) >= MaxMoves {
		return false
	}
	for _, known := range s.Moves {
		if known.ID == m.ID {
			return false
		}
	}
	s.Moves = append(s.Moves, m)
	return true
}

func (s TeamSlot) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	return s.Species.Name
}

func (s TeamSlot) level() int {
	if s.Level <= 0 {
		return DefaultLevel
	}
	if s.Level > MaxLevel {
		return MaxLevel
	}
	return s.Level
}

func (s TeamSlot) Stats() Stats {
	return ComputeAllStats(StatsFromBase(s.Species.BaseStats), s.IVs, s.EVs, s.level(), s.Nature)
}

func (s TeamSlot) clone() TeamSlot {
	out := s
	out.Moves = append([]data.Move(nil), s.Moves...)
	if s.Forme != nil {
		forme := *s.Forme
		out.Forme = &forme
	}
	return out
}
