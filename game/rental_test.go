package game

import (
	"errors"
	"slices"
	"testing"

	"showdown-battle/data"
)

func TestGenerateTeam(t *testing.T) {
	dex := testDex(t)
	slots, err := GenerateTeam(dex, NewRNG(7), MaxTeamSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != MaxTeamSize {
		t.Fatalf("got %d slots", len(slots))
	}
	seen := map[string]bool{}
	for _, s := range slots {
		if seen[s.Species.ID] {
			t.Errorf("duplicate species %s", s.Species.ID)
		}
		seen[s.Species.ID] = true
		if s.Species.BattleOnly != "" {
			t.Errorf("battle-only forme %s in rental team", s.Species.Name)
		}
		if len(s.Moves) == 0 || len(s.Moves) > MaxMoves {
			t.Errorf("%s has %d moves", s.Species.Name, len(s.Moves))
		}
		for _, m := range s.Moves {
			if !slices.Contains(s.Species.Learnset, m.ID) {
				t.Errorf("%s cannot learn %s", s.Species.Name, m.Name)
			}
		}
		if s.EVs.Total() != MaxTotalEV {
			t.Errorf("%s has %d EVs", s.Species.Name, s.EVs.Total())
		}
		if s.Species.Mega != nil && s.Forme == nil {
			t.Errorf("%s missing its mega forme", s.Species.Name)
		}
	}

	again, err := GenerateTeam(dex, NewRNG(7), MaxTeamSize)
	if err != nil {
		t.Fatal(err)
	}
	for i := range slots {
		if slots[i].Species.ID != again[i].Species.ID {
			t.Fatal("same seed produced a different team")
		}
	}
}

func TestGenerateTeamSizes(t *testing.T) {
	dex := testDex(t)
	slots, err := GenerateTeam(dex, NewRNG(1), 0)
	if err != nil || len(slots) != 1 {
		t.Errorf("size 0: %d slots, err %v", len(slots), err)
	}

	small := data.NewDex()
	if _, err := GenerateTeam(small, NewRNG(1), 3); !errors.Is(err, ErrNotEnoughSpecies) {
		t.Errorf("empty dex: got %v", err)
	}
}

func TestMegaKeepsHP(t *testing.T) {
	dex := testDex(t)
	slot := testSlot(t, dex, "Charizard", "Flamethrower")
	slot.Item = "Charizardite Y"
	forme, ok := dex.MegaForme(slot.Species, slot.Item)
	if !ok {
		t.Fatal("no mega forme")
	}
	slot.Forme = &forme

	p := NewBattlePokemon(slot)
	p.HP = 50
	if !canActivate(&p, MegaEvolution{}) {
		t.Fatal("cannot mega evolve")
	}
	activate(&p, MegaEvolution{})
	if p.HP != 50 || p.MaxHP != p.Stats.HP || p.Ability != "Drought" {
		t.Errorf("hp %d/%d ability %s", p.HP, p.MaxHP, p.Ability)
	}
	if canActivate(&p, MegaEvolution{}) {
		t.Error("mega evolved twice")
	}
}

func TestEndDynamaxKeepsProportion(t *testing.T) {
	dex := testDex(t)
	p := NewBattlePokemon(testSlot(t, dex, "Snorlax", "Body Slam"))
	activate(&p, Dynamax{})
	if p.DynamaxTurns != DynamaxTurns || p.MaxHP != 2*p.Stats.HP {
		t.Fatalf("turns %d max hp %d", p.DynamaxTurns, p.MaxHP)
	}
	p.HP = 101
	endDynamax(&p)
	if p.Dynamaxed || p.MaxHP != p.Stats.HP || p.HP != 51 {
		t.Errorf("dynamaxed %v hp %d/%d", p.Dynamaxed, p.HP, p.MaxHP)
	}
}

func TestEffectiveSpeed(t *testing.T) {
	dex := testDex(t)
	tests := []struct {
		name    string
		species string
		ability string
		item    string
		status  Status
		stage   int
		want    int
	}{
		{"plain", "Garchomp", "", "", StatusNone, 0, 122},
		{"paralyzed", "Garchomp", "", "", StatusParalyze, 0, 61},
		{"choice scarf", "Garchomp", "", "Choice Scarf", StatusNone, 0, 183},
		{"boosted", "Garchomp", "", "", StatusNone, 1, 183},
		{"quick feet paralyzed", "Jolteon", "Quick Feet", "", StatusParalyze, 0, 225},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBattlePokemon(testSlot(t, dex, tt.species, "Tackle"))
			if tt.ability != "" {
				p.Ability = tt.ability
			}
			p.Item = tt.item
			p.Status = tt.status
			p.Boosts[StatSpeed] = tt.stage
			if got := p.EffectiveSpeed(); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
