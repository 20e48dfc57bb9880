package parser

import (
	"strings"
	"testing"

	"showdown-battle/game"
)

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		entry game.LogEntry
		want  string
	}{
		{game.LogEntry{Kind: game.LogTurn, Turn: 3}, "|turn|3"},
		{game.LogEntry{Kind: game.LogSwitch, Side: game.SideTwo, Pokemon: "Chompy", Target: "Garchomp", HP: 183, MaxHP: 183}, "|switch|p2a: Chompy|Garchomp|183/183"},
		{game.LogEntry{Kind: game.LogMove, Pokemon: "Garchomp", Move: "Earthquake", Target: "Blissey"}, "|move|p1a: Garchomp|Earthquake|p2a: Blissey"},
		{game.LogEntry{Kind: game.LogDamage, Side: game.SideTwo, Pokemon: "Blissey", HP: 30, MaxHP: 330}, "|-damage|p2a: Blissey|30/330"},
		{game.LogEntry{Kind: game.LogDamage, Pokemon: "Blissey", HP: 0, MaxHP: 330, Cause: "tox"}, "|-damage|p1a: Blissey|0 fnt|[from] tox"},
		{game.LogEntry{Kind: game.LogEffectiveness, Side: game.SideTwo, Pokemon: "Heatran", Effectiveness: 4}, "|-supereffective|p2a: Heatran"},
		{game.LogEntry{Kind: game.LogEffectiveness, Side: game.SideTwo, Pokemon: "Rotom"}, "|-immune|p2a: Rotom"},
		{game.LogEntry{Kind: game.LogBoost, Pokemon: "Garchomp", Stat: "Atk", Stage: 2}, "|-boost|p1a: Garchomp|atk|2"},
		{game.LogEntry{Kind: game.LogBoost, Pokemon: "Garchomp", Stat: "Spe", Stage: -1}, "|-unboost|p1a: Garchomp|spe|1"},
		{game.LogEntry{Kind: game.LogMechanic, Pokemon: "Garchomp", Mechanic: game.MechanicTera, Target: "Ground"}, "|-terastallize|p1a: Garchomp|Ground"},
		{game.LogEntry{Kind: game.LogMechanic, Pokemon: "Snorlax", Mechanic: game.MechanicDynamax, HP: 300, MaxHP: 300}, "|-start|p1a: Snorlax|Dynamax|300/300"},
		{game.LogEntry{Kind: game.LogWeather, Weather: game.WeatherSand, Cause: "Sand Stream"}, "|-weather|Sandstorm|[from] Sand Stream"},
		{game.LogEntry{Kind: game.LogWeather, Cause: "end"}, "|-weather|none"},
		{game.LogEntry{Kind: game.LogCant, Pokemon: "Snorlax", Status: game.StatusSleep}, "|cant|p1a: Snorlax|slp"},
		{game.LogEntry{Kind: game.LogWin, Side: game.SideTwo, Pokemon: "Rivals"}, "|win|Rivals"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatEntry(tt.entry); got != tt.want {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want game.LogEntry
		ok   bool
	}{
		{"|switch|p2a: Chompy|Garchomp, L50, M|143/183 par", game.LogEntry{Kind: game.LogSwitch, Side: game.SideTwo, Pokemon: "Chompy", Target: "Garchomp", HP: 143, MaxHP: 183, Status: game.StatusParalyze}, true},
		{"|-damage|p1a: Blissey|0 fnt", game.LogEntry{Kind: game.LogDamage, Pokemon: "Blissey"}, true},
		{"|-heal|p1a: Blissey|200/330|[from] Leftovers", game.LogEntry{Kind: game.LogHeal, Pokemon: "Blissey", HP: 200, MaxHP: 330, Cause: "Leftovers"}, true},
		{"|-unboost|p2a: Garchomp|atk|1", game.LogEntry{Kind: game.LogBoost, Side: game.SideTwo, Pokemon: "Garchomp", Stat: "Atk", Stage: -1}, true},
		{"|-weather|RainDance", game.LogEntry{Kind: game.LogWeather, Weather: game.WeatherRain}, true},
		{"|turn|7", game.LogEntry{Kind: game.LogTurn, Turn: 7}, true},
		{"|-start|p1a: Snorlax|Substitute", game.LogEntry{}, false},
		{"|move|nobody|Tackle", game.LogEntry{}, false},
		{"|j|someone", game.LogEntry{}, false},
		{"not protocol", game.LogEntry{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v", ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

type firstLegal struct{}

func (firstLegal) ChooseAction(state *game.BattleState, side game.Side) game.Action {
	return state.LegalActions(side)[0]
}

func playedBattle(t *testing.T) game.BattleState {
	t.Helper()
	dex := testDex(t)
	one, errs := ImportTeam(garchompSet+"\nTyranitar\n- Crunch\n- Swords Dance\n", dex)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	two, errs := ImportTeam("Blissey\n- Seismic Toss\n- Toxic\n\nSnorlax @ Leftovers\n- Body Slam\n", dex)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	b, err := game.NewBattle(
		game.TeamConfig{Name: "Hikers", Slots: one},
		game.TeamConfig{Name: "Rivals", Slots: two},
		game.Options{RNG: game.NewRNG(42), Opponent: firstLegal{}},
	)
	if err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 200 && !b.Ended(); step++ {
		state := b.State()
		legal := state.LegalActions(game.SideOne)
		if len(legal) == 0 {
			break
		}
		b.SubmitAction(legal[0])
	}
	return b.State()
}

func TestProtocolRoundTrip(t *testing.T) {
	state := playedBattle(t)
	text := FormatLog(state.Log)
	if !strings.HasPrefix(text, "|switch|") {
		t.Errorf("log starts with %q", strings.SplitN(text, "\n", 2)[0])
	}
	parsed, err := ParseLog(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != len(state.Log) {
		t.Fatalf("parsed %d entries, want %d", len(parsed), len(state.Log))
	}
	for i, want := range state.Log {
		got := parsed[i]
		if got.Kind != want.Kind || got.Turn != want.Turn {
			t.Fatalf("entry %d: got %s/%d, want %s/%d", i, got.Kind, got.Turn, want.Kind, want.Turn)
		}
		switch want.Kind {
		case game.LogTurn, game.LogWeather, game.LogTie, game.LogWin:
			continue
		}
		if got.Side != want.Side || got.Pokemon != want.Pokemon {
			t.Errorf("entry %d: got %s %q, want %s %q", i, got.Side, got.Pokemon, want.Side, want.Pokemon)
		}
		if (want.Kind == game.LogDamage || want.Kind == game.LogHeal || want.Kind == game.LogSwitch) && got.HP != want.HP {
			t.Errorf("entry %d: hp %d, want %d", i, got.HP, want.HP)
		}
	}
}

func TestRenderBattleState(t *testing.T) {
	state := playedBattle(t)
	state.Teams[game.SideOne].Name = "<b>Hikers</b>"
	out := RenderBattleState(&state)
	for _, want := range []string{"battle-summary", "&lt;b&gt;Hikers&lt;/b&gt;", "Rivals", "Turn:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}

	fresh := playedBattleStart(t)
	out = RenderBattleState(&fresh)
	if !strings.Contains(out, "Suggestion for Hikers") || !strings.Contains(out, "Dangerous moves of Blissey") {
		t.Errorf("summary lacks the suggestion block:\n%s", out)
	}
}

func playedBattleStart(t *testing.T) game.BattleState {
	t.Helper()
	dex := testDex(t)
	one, _ := ImportTeam(garchompSet, dex)
	two, _ := ImportTeam("Blissey\n- Seismic Toss\n- Ice Beam\n", dex)
	b, err := game.NewBattle(
		game.TeamConfig{Name: "Hikers", Slots: one},
		game.TeamConfig{Name: "Rivals", Slots: two},
		game.Options{RNG: game.NewRNG(1)},
	)
	if err != nil {
		t.Fatal(err)
	}
	return b.State()
}
