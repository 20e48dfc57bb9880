package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"showdown-battle/data"
)

// scriptRNG replays vals in order, then always answers n-1: no crits,
// full-accuracy moves hit, highest damage roll, side two wins coin flips.
type scriptRNG struct {
	vals []int
}

func (r *scriptRNG) IntN(n int) int {
	if len(r.vals) == 0 {
		return n - 1
	}
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v % n
}

func testDex(t *testing.T) *data.Dex {
	t.Helper()
	dex, err := data.Default()
	if err != nil {
		t.Fatalf("load dex: %v", err)
	}
	return dex
}

func mustMove(t *testing.T, dex *data.Dex, name string) data.Move {
	t.Helper()
	m, err := dex.Move(name)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func testSlot(t *testing.T, dex *data.Dex, species string, moves ...string) TeamSlot {
	t.Helper()
	s, err := dex.Species(species)
	if err != nil {
		t.Fatal(err)
	}
	slot := NewTeamSlot(s)
	for _, m := range moves {
		slot.AddMove(mustMove(t, dex, m))
	}
	return slot
}

func newTestBattle(t *testing.T, one, two TeamConfig, rng RNG, opponent Chooser) *Battle {
	t.Helper()
	b, err := NewBattle(one, two, Options{RNG: rng, Opponent: opponent})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func team(slots ...TeamSlot) TeamConfig {
	return TeamConfig{Name: "team", Slots: slots}
}

func movesInTurn(state BattleState, turn int) []LogEntry {
	var out []LogEntry
	for _, e := range state.Log {
		if e.Turn == turn && (e.Kind == LogMove || e.Kind == LogSwitch) {
			out = append(out, e)
		}
	}
	return out
}

func hasEntry(state BattleState, match func(LogEntry) bool) bool {
	for _, e := range state.Log {
		if match(e) {
			return true
		}
	}
	return false
}

type firstLegal struct{}

func (firstLegal) ChooseAction(state *BattleState, side Side) Action {
	return state.LegalActions(side)[0]
}

type illegalChooser struct{}

func (illegalChooser) ChooseAction(*BattleState, Side) Action {
	return MoveAction(9)
}

func TestNewBattle(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)

	state := b.State()
	if state.Phase != PhaseActionSelect || state.Turn != 1 {
		t.Fatalf("phase %s turn %d", state.Phase, state.Turn)
	}
	for _, side := range []Side{SideOne, SideTwo} {
		if p := state.Active(side); p == nil || !p.Active || p.HP != p.MaxHP {
			t.Errorf("side %s active %+v", side, p)
		}
	}
	if got := state.Active(SideTwo).MaxHP; got != 330 {
		t.Errorf("blissey max hp %d, want 330", got)
	}
}

func TestNewBattleTeams(t *testing.T) {
	dex := testDex(t)
	_, err := NewBattle(
		team(testSlot(t, dex, "Garchomp")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		Options{RNG: &scriptRNG{}})
	if !errors.Is(err, ErrEmptyTeam) {
		t.Fatalf("got %v, want ErrEmptyTeam", err)
	}

	var slots []TeamSlot
	for range 8 {
		slots = append(slots, testSlot(t, dex, "Magikarp", "Splash"))
	}
	slots = append([]TeamSlot{testSlot(t, dex, "Caterpie")}, slots...)
	b := newTestBattle(t, team(slots...), team(testSlot(t, dex, "Blissey", "Soft-Boiled")), &scriptRNG{}, nil)
	if n := len(b.State().Teams[SideOne].Pokemon); n != MaxTeamSize {
		t.Errorf("team has %d pokemon, want %d", n, MaxTeamSize)
	}
	st := b.State()
	if name := st.Active(SideOne).Name; name != "Magikarp" {
		t.Errorf("moveless slot was kept: active is %s", name)
	}
}

func TestTurnOrder(t *testing.T) {
	dex := testDex(t)
	tests := []struct {
		name  string
		one   TeamConfig
		two   TeamConfig
		act   [2]Action
		rng   []int
		first []string
	}{
		{
			name:  "faster moves first",
			one:   team(testSlot(t, dex, "Blissey", "Seismic Toss")),
			two:   team(testSlot(t, dex, "Garchomp", "Swords Dance")),
			act:   [2]Action{MoveAction(0), MoveAction(0)},
			first: []string{"Garchomp", "Blissey"},
		},
		{
			name:  "priority beats speed",
			one:   team(testSlot(t, dex, "Garchomp", "Earthquake")),
			two:   team(testSlot(t, dex, "Scizor", "Bullet Punch")),
			act:   [2]Action{MoveAction(0), MoveAction(0)},
			first: []string{"Scizor", "Garchomp"},
		},
		{
			name:  "switch before priority move",
			one:   team(testSlot(t, dex, "Garchomp", "Earthquake"), testSlot(t, dex, "Blissey", "Soft-Boiled")),
			two:   team(testSlot(t, dex, "Scizor", "Bullet Punch")),
			act:   [2]Action{SwitchAction(1), MoveAction(0)},
			first: []string{"Blissey", "Scizor"},
		},
		{
			name: "speed tie coin flip to side one",
			one: team(func() TeamSlot {
				s := testSlot(t, dex, "Garchomp", "Swords Dance")
				s.Nickname = "Alpha"
				return s
			}()),
			two:   team(testSlot(t, dex, "Garchomp", "Swords Dance")),
			act:   [2]Action{MoveAction(0), MoveAction(0)},
			rng:   []int{0},
			first: []string{"Alpha", "Garchomp"},
		},
		{
			name: "speed tie coin flip to side two",
			one: team(func() TeamSlot {
				s := testSlot(t, dex, "Garchomp", "Swords Dance")
				s.Nickname = "Alpha"
				return s
			}()),
			two:   team(testSlot(t, dex, "Garchomp", "Swords Dance")),
			act:   [2]Action{MoveAction(0), MoveAction(0)},
			rng:   []int{1},
			first: []string{"Garchomp", "Alpha"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBattle(t, tt.one, tt.two, &scriptRNG{vals: tt.rng}, nil)
			if !b.SubmitActions(tt.act[0], tt.act[1]) {
				t.Fatal("actions rejected")
			}
			got := movesInTurn(b.State(), 1)
			if len(got) < len(tt.first) {
				t.Fatalf("only %d actions logged", len(got))
			}
			for i, name := range tt.first {
				if got[i].Pokemon != name {
					t.Errorf("action %d by %s, want %s", i, got[i].Pokemon, name)
				}
			}
		})
	}
}

func TestIllegalActionsIgnored(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake", "Swords Dance"), testSlot(t, dex, "Blissey", "Soft-Boiled")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)
	b.state.Teams[SideOne].Pokemon[0].Moves[1].PP = 0

	tests := []struct {
		name   string
		side   Side
		action Action
	}{
		{"move index out of range", SideOne, MoveAction(4)},
		{"negative move index", SideOne, MoveAction(-2)},
		{"move without pp", SideOne, MoveAction(1)},
		{"switch to active", SideOne, SwitchAction(0)},
		{"switch out of range", SideOne, SwitchAction(5)},
		{"switch with no reserve", SideTwo, SwitchAction(1)},
		{"mechanic not allowed", SideOne, MoveWithMechanic(0, MegaEvolution{})},
		{"struggle with pp left", SideOne, StruggleAction()},
		{"unknown side", Side(2), MoveAction(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b.State()
			if b.Submit(tt.side, tt.action) {
				t.Fatal("illegal action accepted")
			}
			if after := b.State(); !reflect.DeepEqual(before, after) {
				t.Error("state changed")
			}
			if b.Pending(SideOne) || b.Pending(SideTwo) {
				t.Error("illegal action was buffered")
			}
		})
	}

	if !b.Submit(SideOne, MoveAction(0)) {
		t.Fatal("legal action rejected")
	}
	if b.Submit(SideOne, MoveAction(0)) {
		t.Error("second submission for the same side accepted")
	}
}

func TestBattleEndsAndFreezes(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)

	if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	state := b.State()
	if state.Phase != PhaseEnded || state.Winner == nil || *state.Winner != SideOne || state.Draw {
		t.Fatalf("phase %s winner %v draw %v", state.Phase, state.Winner, state.Draw)
	}
	if !state.Active(SideTwo).Fainted {
		t.Error("blissey should have fainted")
	}
	if hasEntry(state, func(e LogEntry) bool { return e.Kind == LogMove && e.Side == SideTwo }) {
		t.Error("fainted pokemon still moved")
	}

	before, err := json.Marshal(b.State())
	if err != nil {
		t.Fatal(err)
	}
	if b.Submit(SideOne, MoveAction(0)) || b.SubmitAction(MoveAction(0)) ||
		b.SubmitActions(MoveAction(0), MoveAction(0)) || b.SubmitSwitch(SideTwo, 0) {
		t.Error("mutation accepted after the battle ended")
	}
	after, err := json.Marshal(b.State())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("state changed after the battle ended")
	}
}

func TestForceSwitch(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled"), testSlot(t, dex, "Magikarp", "Splash")),
		&scriptRNG{}, nil)

	if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	state := b.State()
	if state.Phase != PhaseForceSwitch || !state.ForceSwitch[SideTwo] || state.ForceSwitch[SideOne] {
		t.Fatalf("phase %s flags %v", state.Phase, state.ForceSwitch)
	}

	if b.Submit(SideOne, MoveAction(0)) {
		t.Error("move accepted during a forced switch")
	}
	if b.SubmitSwitch(SideTwo, 0) {
		t.Error("switch to the fainted active accepted")
	}
	if b.Submit(SideTwo, MoveAction(0)) {
		t.Error("move accepted from the side that must switch")
	}
	if !b.SubmitSwitch(SideTwo, 1) {
		t.Fatal("valid replacement rejected")
	}

	state = b.State()
	if state.Phase != PhaseActionSelect || state.Turn != 2 {
		t.Fatalf("phase %s turn %d", state.Phase, state.Turn)
	}
	if name := state.Active(SideTwo).Name; name != "Magikarp" {
		t.Errorf("active is %s, want Magikarp", name)
	}
}

func TestOpponentChooser(t *testing.T) {
	dex := testDex(t)
	for _, opp := range []Chooser{firstLegal{}, illegalChooser{}} {
		b := newTestBattle(t,
			team(testSlot(t, dex, "Garchomp", "Earthquake")),
			team(testSlot(t, dex, "Blissey", "Soft-Boiled"), testSlot(t, dex, "Magikarp", "Splash")),
			&scriptRNG{}, opp)

		if !b.SubmitAction(MoveAction(0)) {
			t.Fatalf("%T: action rejected", opp)
		}
		state := b.State()
		if state.Phase != PhaseActionSelect || state.Turn != 2 {
			t.Fatalf("%T: phase %s turn %d", opp, state.Phase, state.Turn)
		}
		if name := state.Active(SideTwo).Name; name != "Magikarp" {
			t.Errorf("%T: opponent did not fill its forced switch, active is %s", opp, name)
		}
	}
}

func TestMegaEvolution(t *testing.T) {
	dex := testDex(t)
	slot := testSlot(t, dex, "Garchomp", "Swords Dance", "Earthquake")
	slot.Item = "Garchompite"
	forme, ok := dex.MegaForme(slot.Species, slot.Item)
	if !ok {
		t.Fatal("no mega forme")
	}
	slot.Forme = &forme

	one := team(slot)
	one.Mechanic = MechanicMega
	b := newTestBattle(t, one, team(testSlot(t, dex, "Blissey", "Soft-Boiled")), &scriptRNG{}, nil)

	if !b.SubmitActions(MoveWithMechanic(0, MegaEvolution{}), MoveAction(0)) {
		t.Fatal("mega evolution rejected")
	}
	state := b.State()
	p := state.Active(SideOne)
	if !p.MegaEvolved || p.Species.Name != "Garchomp-Mega" || p.Ability != "Sand Force" {
		t.Fatalf("not mega evolved: %+v", p.Species)
	}
	if p.Stats.Attack != 190 || p.HP != 183 || p.MaxHP != 183 {
		t.Errorf("attack %d hp %d/%d", p.Stats.Attack, p.HP, p.MaxHP)
	}
	if !state.Teams[SideOne].MechanicUsed {
		t.Error("mechanic not consumed")
	}
	if !hasEntry(state, func(e LogEntry) bool { return e.Kind == LogMechanic && e.Mechanic == MechanicMega }) {
		t.Error("no mechanic log entry")
	}

	if b.Submit(SideOne, MoveWithMechanic(1, MegaEvolution{})) {
		t.Error("mechanic used twice")
	}
	st := b.State()
	for _, a := range st.LegalActions(SideOne) {
		if a.Mechanic != nil {
			t.Errorf("mechanic still offered: %+v", a)
		}
	}
}

func TestTerastallize(t *testing.T) {
	dex := testDex(t)
	slot := testSlot(t, dex, "Garchomp", "Swords Dance")
	slot.TeraType = TypeFire
	one := team(slot)
	one.Mechanic = MechanicTera
	b := newTestBattle(t, one, team(testSlot(t, dex, "Blissey", "Soft-Boiled")), &scriptRNG{}, nil)

	if b.Submit(SideOne, MoveWithMechanic(0, MegaEvolution{})) {
		t.Error("mega accepted for a tera team")
	}
	if b.Submit(SideOne, MoveWithMechanic(0, Terastallize{Type: TypeWater})) {
		t.Error("tera into a type other than the configured one accepted")
	}
	if !b.SubmitActions(MoveWithMechanic(0, Terastallize{}), MoveAction(0)) {
		t.Fatal("tera rejected")
	}
	st := b.State()
	p := st.Active(SideOne)
	if !p.Terastallized || !reflect.DeepEqual(p.DefensiveTypes(), []Type{TypeFire}) {
		t.Errorf("defensive types %v", p.DefensiveTypes())
	}
}

func TestDynamax(t *testing.T) {
	dex := testDex(t)
	one := team(testSlot(t, dex, "Garchomp", "Swords Dance"))
	one.Mechanic = MechanicDynamax
	b := newTestBattle(t, one, team(testSlot(t, dex, "Blissey", "Soft-Boiled")), &scriptRNG{}, nil)

	if !b.SubmitActions(MoveWithMechanic(0, Dynamax{}), MoveAction(0)) {
		t.Fatal("dynamax rejected")
	}
	st := b.State()
	p := st.Active(SideOne)
	if !p.Dynamaxed || p.HP != 366 || p.MaxHP != 366 {
		t.Fatalf("dynamaxed %v hp %d/%d", p.Dynamaxed, p.HP, p.MaxHP)
	}

	for turn := 2; turn <= 3; turn++ {
		if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
			t.Fatalf("turn %d rejected", turn)
		}
	}
	st = b.State()
	p = st.Active(SideOne)
	if p.Dynamaxed || p.HP != 183 || p.MaxHP != 183 {
		t.Errorf("after three turns: dynamaxed %v hp %d/%d", p.Dynamaxed, p.HP, p.MaxHP)
	}
	if !hasEntry(b.State(), func(e LogEntry) bool { return e.Kind == LogMechanicEnd }) {
		t.Error("no mechanic end entry")
	}
}

func TestDynamaxTurnsFixed(t *testing.T) {
	var decoded Action
	if err := json.Unmarshal([]byte(`{"kind":"move","index":0,"mechanic":"dynamax","turns":500}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded.Mechanic, Dynamax{Turns: DynamaxTurns}) {
		t.Fatalf("decoded mechanic %#v", decoded.Mechanic)
	}

	dex := testDex(t)
	one := team(testSlot(t, dex, "Garchomp", "Swords Dance"))
	one.Mechanic = MechanicDynamax
	b := newTestBattle(t, one, team(testSlot(t, dex, "Blissey", "Soft-Boiled")), &scriptRNG{}, nil)

	tests := []struct {
		name  string
		a     Action
		legal bool
	}{
		{"client turns", MoveWithMechanic(0, Dynamax{Turns: 500}), false},
		{"default turns", MoveWithMechanic(0, Dynamax{}), true},
		{"decoded", decoded, true},
	}
	st := b.State()
	for _, tt := range tests {
		if got := st.IsLegal(SideOne, tt.a); got != tt.legal {
			t.Errorf("%s: legal %v, want %v", tt.name, got, tt.legal)
		}
	}

	if b.SubmitActions(MoveWithMechanic(0, Dynamax{Turns: 500}), MoveAction(0)) {
		t.Fatal("dynamax with client turns accepted")
	}
	if !b.SubmitActions(decoded, MoveAction(0)) {
		t.Fatal("decoded dynamax rejected")
	}
	for turn := 2; turn <= 3; turn++ {
		if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
			t.Fatalf("turn %d rejected", turn)
		}
	}
	st = b.State()
	if st.Active(SideOne).Dynamaxed {
		t.Error("still dynamaxed after three turns")
	}
}

func TestStruggle(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)
	b.state.Teams[SideOne].Pokemon[0].Moves[0].PP = 0

	st := b.State()
	legal := st.LegalActions(SideOne)
	if !reflect.DeepEqual(legal, []Action{StruggleAction()}) {
		t.Fatalf("legal actions %+v", legal)
	}
	if b.Submit(SideOne, MoveAction(0)) {
		t.Error("move without pp accepted")
	}
	if !b.SubmitActions(StruggleAction(), MoveAction(0)) {
		t.Fatal("struggle rejected")
	}
	state := b.State()
	if hp := state.Active(SideOne).HP; hp != 138 {
		t.Errorf("garchomp hp %d after recoil, want 138", hp)
	}
	if !hasEntry(state, func(e LogEntry) bool { return e.Kind == LogDamage && e.Cause == "recoil" }) {
		t.Error("no recoil entry")
	}
}

func TestSimultaneousWipeIsDraw(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)
	b.state.Teams[SideOne].Pokemon[0].Moves[0].PP = 0
	b.state.Teams[SideOne].Pokemon[0].HP = 1
	b.state.Teams[SideTwo].Pokemon[0].HP = 1

	if !b.SubmitActions(StruggleAction(), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	state := b.State()
	if state.Phase != PhaseEnded || !state.Draw || state.Winner != nil {
		t.Fatalf("phase %s draw %v winner %v", state.Phase, state.Draw, state.Winner)
	}
	if last := state.Log[len(state.Log)-1]; last.Kind != LogTie {
		t.Errorf("last entry %s, want tie", last.Kind)
	}
}

func TestSleep(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Spore")),
		team(testSlot(t, dex, "Blissey", "Seismic Toss")),
		&scriptRNG{}, nil)

	if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	state := b.State()
	p := state.Active(SideTwo)
	if p.Status != StatusSleep || p.SleepTurns != 2 {
		t.Errorf("status %q sleep turns %d", p.Status, p.SleepTurns)
	}
	if !hasEntry(state, func(e LogEntry) bool { return e.Kind == LogCant && e.Side == SideTwo }) {
		t.Error("sleeping pokemon was not stopped")
	}
}

func TestStatusImmunities(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)

	tests := []struct {
		species string
		status  Status
		want    bool
	}{
		{"Charizard", StatusBurn, false},
		{"Blissey", StatusBurn, true},
		{"Ferrothorn", StatusToxic, false},
		{"Gengar", StatusPoison, false},
		{"Pikachu", StatusParalyze, false},
		{"Abomasnow", StatusFreeze, false},
		{"Snorlax", StatusPoison, false},
		{"Snorlax", StatusSleep, true},
	}
	for _, tt := range tests {
		p := NewBattlePokemon(testSlot(t, dex, tt.species, "Tackle"))
		if got := b.inflictStatus(SideTwo, &p, tt.status); got != tt.want {
			t.Errorf("%s %s: got %v, want %v", tt.species, tt.status, got, tt.want)
		}
	}
}

func TestSandAndToxicResiduals(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Tyranitar", "Dragon Dance")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)
	if b.State().Weather != WeatherSand {
		t.Fatal("sand stream did not set sand")
	}

	if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	state := b.State()
	if hp := state.Active(SideTwo).HP; hp != 310 {
		t.Errorf("blissey hp %d after sand, want 310", hp)
	}
	if hp := state.Active(SideOne).HP; hp != state.Active(SideOne).MaxHP {
		t.Error("rock type took sand damage")
	}
	if state.WeatherTurns != WeatherDuration-1 {
		t.Errorf("weather turns %d", state.WeatherTurns)
	}

	b.state.Teams[SideTwo].Pokemon[0].Status = StatusToxic
	b.state.Teams[SideTwo].Pokemon[0].ToxicCounter = 1
	if !b.SubmitActions(MoveAction(0), MoveAction(0)) {
		t.Fatal("actions rejected")
	}
	// Soft-Boiled restores 20, then sand and toxic take 20 each.
	st := b.State()
	if hp := st.Active(SideTwo).HP; hp != 290 {
		t.Errorf("blissey hp %d after sand and toxic, want 290", hp)
	}
}

func TestStateIsACopy(t *testing.T) {
	dex := testDex(t)
	b := newTestBattle(t,
		team(testSlot(t, dex, "Garchomp", "Earthquake")),
		team(testSlot(t, dex, "Blissey", "Soft-Boiled")),
		&scriptRNG{}, nil)

	view := b.State()
	view.Teams[SideOne].Pokemon[0].HP = 1
	view.Teams[SideOne].Pokemon[0].Moves[0].PP = 0
	view.Log[0].Pokemon = "changed"

	state := b.State()
	if p := state.Active(SideOne); p.HP == 1 || p.Moves[0].PP == 0 || state.Log[0].Pokemon == "changed" {
		t.Error("mutating a state view changed the battle")
	}
}

func TestActionJSON(t *testing.T) {
	in := MoveWithMechanic(2, Terastallize{Type: TypeFire})
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Action
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if err := json.Unmarshal([]byte(`{"kind":"move","index":0,"mechanic":"zmove"}`), &out); err == nil {
		t.Error("unknown mechanic accepted")
	}
}
