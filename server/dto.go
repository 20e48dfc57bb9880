package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"showdown-battle/data"
	"showdown-battle/game"
	"showdown-battle/parser"
	"showdown-battle/store"
)

var ErrBadRequest = errors.New("bad request")

// SlotSpec is the JSON shape of one roster entry.
type SlotSpec struct {
	Species  string         `json:"species"`
	Nickname string         `json:"nickname,omitempty"`
	Level    int            `json:"level,omitempty"`
	Nature   string         `json:"nature,omitempty"`
	EVs      game.EVSpread  `json:"evs"`
	IVs      *game.IVSpread `json:"ivs,omitempty"`
	Ability  string         `json:"ability,omitempty"`
	Item     string         `json:"item,omitempty"`
	Moves    []string       `json:"moves,omitempty"`
	TeraType string         `json:"teraType,omitempty"`
}

func (s SlotSpec) toSlot(dex *data.Dex) (game.TeamSlot, error) {
	species, err := dex.Species(s.Species)
	if err != nil {
		return game.TeamSlot{}, err
	}
	slot := game.NewTeamSlot(species)
	slot.Nickname = s.Nickname
	if s.Level != 0 {
		slot.Level = min(max(s.Level, 1), game.MaxLevel)
	}
	if s.Nature != "" {
		n, ok := game.LookupNature(s.Nature)
		if !ok {
			return game.TeamSlot{}, fmt.Errorf("%w: unknown nature %q", ErrBadRequest, s.Nature)
		}
		slot.Nature = n
	}
	slot.EVs = s.EVs
	if s.IVs != nil {
		slot.IVs = *s.IVs
	}
	if s.Ability != "" {
		slot.Ability = s.Ability
	}
	slot.Item = s.Item
	if s.TeraType != "" {
		t, ok := game.ParseType(s.TeraType)
		if !ok {
			return game.TeamSlot{}, fmt.Errorf("%w: unknown tera type %q", ErrBadRequest, s.TeraType)
		}
		slot.TeraType = t
	}
	for _, name := range s.Moves {
		m, err := dex.Move(name)
		if err != nil {
			return game.TeamSlot{}, err
		}
		slot.AddMove(m)
	}
	if forme, ok := dex.MegaForme(species, slot.Item); ok {
		slot.Forme = &forme
	}
	return slot, nil
}

func fromSlot(slot game.TeamSlot) SlotSpec {
	ivs := slot.IVs
	spec := SlotSpec{
		Species:  slot.Species.Name,
		Nickname: slot.Nickname,
		Level:    slot.Level,
		Nature:   slot.Nature.Name,
		EVs:      slot.EVs,
		IVs:      &ivs,
		Ability:  slot.Ability,
		Item:     slot.Item,
		TeraType: string(slot.TeraType),
	}
	for _, m := range slot.Moves {
		spec.Moves = append(spec.Moves, m.Name)
	}
	return spec
}

// TeamRequest is a team given either as Showdown text or as slots.
type TeamRequest struct {
	Name     string            `json:"name,omitempty"`
	Text     string            `json:"text,omitempty"`
	Slots    []SlotSpec        `json:"slots,omitempty"`
	Mechanic game.MechanicKind `json:"mechanic,omitempty"`
}

func (t TeamRequest) empty() bool {
	return t.Text == "" && len(t.Slots) == 0
}

// slots resolves the team. Import warnings are returned alongside; they
// never fail the request on their own.
func (t TeamRequest) slots(dex *data.Dex) ([]game.TeamSlot, []string, error) {
	if t.Text != "" {
		slots, errs := parser.ImportTeam(t.Text, dex)
		warnings := make([]string, 0, len(errs))
		for _, err := range errs {
			warnings = append(warnings, err.Error())
		}
		if len(slots) == 0 {
			return nil, warnings, fmt.Errorf("%w: team text has no usable pokemon", ErrBadRequest)
		}
		return slots, warnings, nil
	}
	out := make([]game.TeamSlot, 0, len(t.Slots))
	for _, s := range t.Slots {
		slot, err := s.toSlot(dex)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, slot)
	}
	return out, nil, nil
}

func (t TeamRequest) config(dex *data.Dex, fallbackName string) (game.TeamConfig, []string, error) {
	if _, ok := game.ParseMechanicKind(string(t.Mechanic)); !ok {
		return game.TeamConfig{}, nil, fmt.Errorf("%w: unknown mechanic %q", ErrBadRequest, t.Mechanic)
	}
	slots, warnings, err := t.slots(dex)
	if err != nil {
		return game.TeamConfig{}, warnings, err
	}
	name := t.Name
	if name == "" {
		name = fallbackName
	}
	return game.TeamConfig{Name: name, Slots: slots, Mechanic: t.Mechanic}, warnings, nil
}

// pokemonSpec picks a battler from either team text (first block) or a slot.
type pokemonSpec struct {
	Text string    `json:"text,omitempty"`
	Slot *SlotSpec `json:"slot,omitempty"`
}

func (p pokemonSpec) battler(dex *data.Dex) (game.BattlePokemon, error) {
	var slot game.TeamSlot
	switch {
	case p.Slot != nil:
		s, err := p.Slot.toSlot(dex)
		if err != nil {
			return game.BattlePokemon{}, err
		}
		slot = s
	case p.Text != "":
		slots, errs := parser.ImportTeam(p.Text, dex)
		if len(slots) == 0 {
			if len(errs) > 0 {
				return game.BattlePokemon{}, errs[0]
			}
			return game.BattlePokemon{}, fmt.Errorf("%w: no pokemon in text", ErrBadRequest)
		}
		slot = slots[0]
	default:
		return game.BattlePokemon{}, fmt.Errorf("%w: pokemon is required", ErrBadRequest)
	}
	return game.NewBattlePokemon(slot), nil
}

// abort writes err as a JSON error with the status it maps to.
func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, data.ErrSpeciesNotFound), errors.Is(err, data.ErrMoveNotFound),
		errors.Is(err, ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, game.ErrEmptyTeam),
		errors.Is(err, game.ErrNotEnoughSpecies):
		status = http.StatusBadRequest
	case errors.Is(err, parser.ErrNoMoves):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTooManySessions):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrSessionClosed):
		status = http.StatusGone
	case errors.Is(err, ErrSideNotPlayable):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		serverLogger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return false
	}
	return true
}
