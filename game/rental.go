package game

import (
	"errors"
	"sort"

	"github.com/samber/lo"

	"showdown-battle/data"
)

const rentalEV = MaxTotalEV / 6

var ErrNotEnoughSpecies = errors.New("not enough species for a rental team")

// GenerateTeam builds a random rental team of distinct species. Each slot
// gets up to four moves from its learnset, damaging moves first, a random
// nature and an even EV spread. Species with a mega forme carry the stone.
func GenerateTeam(dex *data.Dex, rng RNG, size int) ([]TeamSlot, error) {
	size = clamp(size, 1, MaxTeamSize)
	pool := lo.Filter(dex.AllSpecies(), func(s data.Species, _ int) bool {
		return s.BattleOnly == "" && len(dex.Learnset(s)) > 0
	})
	if len(pool) < size {
		return nil, ErrNotEnoughSpecies
	}
	shuffle(pool, rng)

	team := make([]TeamSlot, 0, size)
	for _, species := range pool[:size] {
		slot := NewTeamSlot(species)
		slot.Nature = natures[rng.IntN(len(natures))]
		for _, stat := range AllStats {
			slot.EVs.Set(stat, rentalEV)
		}
		if len(species.Abilities) > 0 {
			slot.Ability = species.Abilities[rng.IntN(len(species.Abilities))]
		}
		slot.TeraType = Type(species.Types[rng.IntN(len(species.Types))])
		if species.Mega != nil {
			if forme, ok := dex.MegaForme(species, species.Mega.Stone); ok {
				slot.Item = species.Mega.Stone
				slot.Forme = &forme
			}
		}

		moves := dex.Learnset(species)
		shuffle(moves, rng)
		sort.SliceStable(moves, func(i, j int) bool {
			return !moves[i].IsStatus() && moves[j].IsStatus()
		})
		for _, m := range moves {
			if len(slot.Moves) == MaxMoves {
				break
			}
			slot.AddMove(m)
		}
		team = append(team, slot)
	}
	return team, nil
}

func shuffle[T any](s []T, rng RNG) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
