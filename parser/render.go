package parser

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/samber/lo"

	"showdown-battle/ai"
	"showdown-battle/data"
	"showdown-battle/game"
)

var weatherLabels = map[game.Weather]string{
	game.WeatherRain: "Rain",
	game.WeatherSun:  "Harsh sunlight",
	game.WeatherSand: "Sandstorm",
	game.WeatherSnow: "Snow",
}

type threat struct {
	move data.Move
	res  game.DamageResult
}

// threats ranks the attacker's damaging moves against def, hardest first.
func threats(att, def *game.BattlePokemon, weather game.Weather) []threat {
	damaging := lo.Filter(att.Moves, func(bm game.BattleMove, _ int) bool {
		return !bm.Move.IsStatus()
	})
	out := lo.Map(damaging, func(bm game.BattleMove, _ int) threat {
		return threat{bm.Move, game.CalculateDamage(att, def, bm.Move, game.DamageConfig{Weather: weather})}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].res.Max > out[j].res.Max })
	return out
}

// DescribeAction names a for display, e.g. "Earthquake (tera)" or
// "switch to Blissey".
func DescribeAction(state *game.BattleState, side game.Side, a game.Action) string {
	team := &state.Teams[side]
	switch {
	case a.Kind == game.ActionSwitch && a.Index >= 0 && a.Index < len(team.Pokemon):
		return "switch to " + team.Pokemon[a.Index].Name
	case a.Kind == game.ActionMove && a.Index == game.StruggleIndex:
		return "Struggle"
	case a.Kind == game.ActionMove:
		p := team.ActivePokemon()
		if p == nil || a.Index < 0 || a.Index >= len(p.Moves) {
			return "?"
		}
		name := p.Moves[a.Index].Move.Name
		if a.Mechanic != nil {
			name += fmt.Sprintf(" (%s)", a.Mechanic.Kind())
		}
		return name
	}
	return "?"
}

// RenderBattleState renders an HTML summary of state from side one's point
// of view, with a suggested action and the opponent's most dangerous moves.
func RenderBattleState(state *game.BattleState) string {
	var sb strings.Builder
	esc := html.EscapeString

	sb.WriteString("<div class='battle-summary'>")
	if label, ok := weatherLabels[state.Weather]; ok {
		fmt.Fprintf(&sb, "<div><b>Weather:</b> %s (%d turns)</div>", label, state.WeatherTurns)
	}
	fmt.Fprintf(&sb, "<h3>Turn: %d</h3>", state.Turn)

	for _, side := range []game.Side{game.SideOne, game.SideTwo} {
		team := &state.Teams[side]
		fmt.Fprintf(&sb, "<h4>%s</h4>", esc(team.Name))
		poke := team.ActivePokemon()
		if poke == nil {
			continue
		}
		fainted := ""
		if poke.Fainted {
			fainted = "<span class='fainted'>(fainted)</span>"
		}
		status := ""
		if poke.Status != game.StatusNone {
			status = fmt.Sprintf("<span class='status'>[%s]</span>", poke.Status)
		}
		fmt.Fprintf(&sb, "<b>%s</b> %s %s <span class='hp'>[%d/%d]</span> <span class='ability'>%s</span><br>",
			esc(poke.Name), fainted, status, poke.HP, poke.MaxHP, esc(poke.Ability))

		var boosts []string
		for _, stat := range game.AllStats[1:] {
			if v := poke.Boosts[stat]; v != 0 {
				boosts = append(boosts, fmt.Sprintf("%+d %s", v, stat))
			}
		}
		if len(boosts) > 0 {
			sb.WriteString("<span class='boosts'>Boosts: " + strings.Join(boosts, ", ") + "</span><br>")
		}
		moves := lo.Map(poke.Moves, func(bm game.BattleMove, _ int) string {
			return fmt.Sprintf("%s %d/%d", esc(bm.Move.Name), bm.PP, bm.MaxPP)
		})
		sb.WriteString("Moves: " + strings.Join(moves, ", ") + "<br>")
	}

	if state.Winner != nil {
		fmt.Fprintf(&sb, "<div class='result'>%s won</div>", esc(state.Teams[*state.Winner].Name))
	} else if state.Draw {
		sb.WriteString("<div class='result'>Draw</div>")
	}

	me, foe := state.Active(game.SideOne), state.Active(game.SideTwo)
	if legal := state.LegalActions(game.SideOne); len(legal) > 0 && me != nil && foe != nil {
		hint := ai.ChooseAction(state, game.SideOne, ai.Hard, game.NewRNG(uint64(state.Turn)))
		fmt.Fprintf(&sb, "<div class='suggestion'><b>Suggestion for %s:</b> %s<br>",
			esc(state.Teams[game.SideOne].Name), esc(DescribeAction(state, game.SideOne, hint)))

		if list := threats(foe, me, state.Weather); len(list) > 0 {
			sb.WriteString("Dangerous moves of " + esc(foe.Name) + ":<ul>")
			for _, t := range list {
				fmt.Fprintf(&sb, "<li>%s [%s] %s, %s</li>", esc(t.move.Name), t.move.Type,
					t.res.Label(me.HP), game.EffectivenessLabel(t.res.Effectiveness))
			}
			sb.WriteString("</ul>")
		}
		sb.WriteString("</div>")
	}

	sb.WriteString("</div>")
	return sb.String()
}
