// Package ai picks actions for computer-controlled sides.
//
// Every tier only ever returns an action from BattleState.LegalActions.
// The easy tier moves at random, normal ranks moves by type matchup and
// power, and hard runs the damage calculator and goes for knockouts.
package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"showdown-battle/data"
	"showdown-battle/game"
)

var aiLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "ai").Logger()
	return &logger
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(s); d {
	case Easy, Normal, Hard:
		return d, true
	}
	return "", false
}

type Profile struct {
	SwitchThreshold float64 `yaml:"switch_threshold"`
	StatusScore     float64 `yaml:"status_score"`
	UseMechanic     bool    `yaml:"use_mechanic"`
}

//go:embed profiles.yaml
var profilesYAML []byte

var defaultProfiles = sync.OnceValues(func() (map[Difficulty]Profile, error) {
	return LoadProfiles(bytes.NewReader(profilesYAML))
})

// LoadProfiles reads a profile per difficulty. Unknown keys are rejected.
func LoadProfiles(r io.Reader) (map[Difficulty]Profile, error) {
	var raw map[string]Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ai profiles: %w", err)
	}
	out := make(map[Difficulty]Profile, len(raw))
	for name, p := range raw {
		d, ok := ParseDifficulty(name)
		if !ok {
			return nil, fmt.Errorf("unknown difficulty %q in ai profiles", name)
		}
		out[d] = p
	}
	return out, nil
}

// Engine is a game.Chooser for one difficulty.
type Engine struct {
	difficulty Difficulty
	profile    Profile
	rng        game.RNG
}

func New(d Difficulty, rng game.RNG) (*Engine, error) {
	profiles, err := defaultProfiles()
	if err != nil {
		return nil, err
	}
	p, ok := profiles[d]
	if !ok {
		return nil, fmt.Errorf("no ai profile for difficulty %q", d)
	}
	return NewWithProfile(d, p, rng), nil
}

func NewWithProfile(d Difficulty, p Profile, rng game.RNG) *Engine {
	return &Engine{difficulty: d, profile: p, rng: rng}
}

func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// ChooseAction is a one-off decision without keeping an Engine around.
func ChooseAction(state *game.BattleState, side game.Side, d Difficulty, rng game.RNG) game.Action {
	e, err := New(d, rng)
	if err != nil {
		aiLogger().Error().Err(err).Msg("falling back to the easy tier")
		e = NewWithProfile(Easy, Profile{}, rng)
	}
	return e.ChooseAction(state, side)
}

func (e *Engine) ChooseAction(state *game.BattleState, side game.Side) game.Action {
	legal := state.LegalActions(side)
	if len(legal) == 0 {
		return game.Action{}
	}
	if state.Phase == game.PhaseForceSwitch {
		return e.chooseSwitch(state, side, legal)
	}
	if len(legal) == 1 {
		return legal[0]
	}

	var a game.Action
	switch e.difficulty {
	case Hard:
		a = e.chooseHard(state, side, legal)
	case Normal:
		a = e.chooseNormal(state, side, legal)
	default:
		a = e.chooseEasy(legal)
	}
	aiLogger().Debug().Str("difficulty", string(e.difficulty)).Str("side", side.String()).
		Str("kind", string(a.Kind)).Int("index", a.Index).Msg("action chosen")
	return a
}

func plainMoves(legal []game.Action) []game.Action {
	return lo.Filter(legal, func(a game.Action, _ int) bool {
		return a.Kind == game.ActionMove && a.Mechanic == nil
	})
}

func switches(legal []game.Action) []game.Action {
	return lo.Filter(legal, func(a game.Action, _ int) bool {
		return a.Kind == game.ActionSwitch
	})
}

func (e *Engine) chooseEasy(legal []game.Action) game.Action {
	moves := plainMoves(legal)
	if len(moves) == 0 {
		moves = legal
	}
	return moves[e.rng.IntN(len(moves))]
}

func (e *Engine) chooseSwitch(state *game.BattleState, side game.Side, legal []game.Action) game.Action {
	options := switches(legal)
	if len(options) == 0 {
		return legal[0]
	}
	if e.difficulty == Easy {
		return options[e.rng.IntN(len(options))]
	}
	foe := state.Active(side.Opponent())
	team := &state.Teams[side]
	return lo.MinBy(options, func(a, b game.Action) bool {
		return matchup(&team.Pokemon[a.Index], foe) < matchup(&team.Pokemon[b.Index], foe)
	})
}

func (e *Engine) chooseNormal(state *game.BattleState, side game.Side, legal []game.Action) game.Action {
	if sw, ok := e.switchOut(state, side, legal); ok {
		return sw
	}
	user, foe := state.Active(side), state.Active(side.Opponent())
	moves := plainMoves(legal)
	if len(moves) == 0 {
		return legal[0]
	}
	return lo.MaxBy(moves, func(a, b game.Action) bool {
		return e.typeScore(user, foe, a) > e.typeScore(user, foe, b)
	})
}

func (e *Engine) chooseHard(state *game.BattleState, side game.Side, legal []game.Action) game.Action {
	if sw, ok := e.switchOut(state, side, legal); ok {
		return sw
	}
	user, foe := state.Active(side), state.Active(side.Opponent())
	moves := plainMoves(legal)
	if len(moves) == 0 {
		return legal[0]
	}

	type scored struct {
		action   game.Action
		move     data.Move
		expected float64
		ko       bool
	}
	candidates := lo.Map(moves, func(a game.Action, _ int) scored {
		m := moveAt(user, a.Index)
		if m.IsStatus() {
			return scored{action: a, move: m, expected: e.profile.StatusScore}
		}
		res := game.CalculateDamage(user, foe, m, game.DamageConfig{Weather: state.Weather})
		return scored{
			action:   a,
			move:     m,
			expected: float64(res.Min+res.Max) / 2 * accuracy(m),
			ko:       res.Max > 0 && res.Max >= foe.HP,
		}
	})

	best := lo.MaxBy(candidates, func(a, b scored) bool {
		switch {
		case a.ko != b.ko:
			return a.ko
		case a.ko && accuracy(a.move) != accuracy(b.move):
			return accuracy(a.move) > accuracy(b.move)
		case a.ko && a.move.Priority != b.move.Priority:
			return a.move.Priority > b.move.Priority
		}
		return a.expected > b.expected
	})

	if e.profile.UseMechanic {
		if a, ok := lo.Find(legal, func(a game.Action) bool {
			return a.Kind == game.ActionMove && a.Index == best.action.Index && a.Mechanic != nil
		}); ok {
			return a
		}
	}
	return best.action
}

// switchOut returns a switch when the active Pokemon is outmatched by the
// profile's threshold and a teammate has the better matchup.
func (e *Engine) switchOut(state *game.BattleState, side game.Side, legal []game.Action) (game.Action, bool) {
	if e.profile.SwitchThreshold <= 0 {
		return game.Action{}, false
	}
	options := switches(legal)
	if len(options) == 0 {
		return game.Action{}, false
	}
	user, foe := state.Active(side), state.Active(side.Opponent())
	if matchup(user, foe) <= e.profile.SwitchThreshold {
		return game.Action{}, false
	}
	team := &state.Teams[side]
	best := lo.MinBy(options, func(a, b game.Action) bool {
		return matchup(&team.Pokemon[a.Index], foe) < matchup(&team.Pokemon[b.Index], foe)
	})
	if matchup(&team.Pokemon[best.Index], foe) >= 1 {
		return game.Action{}, false
	}
	return best, true
}

func (e *Engine) typeScore(user, foe *game.BattlePokemon, a game.Action) float64 {
	m := moveAt(user, a.Index)
	if m.IsStatus() {
		return e.profile.StatusScore
	}
	return moveScore(user, foe, m)
}

func moveAt(p *game.BattlePokemon, index int) data.Move {
	if index < 0 || index >= len(p.Moves) {
		return data.Move{}
	}
	return p.Moves[index].Move
}

func accuracy(m data.Move) float64 {
	if m.Accuracy == 0 {
		return 1
	}
	return float64(m.Accuracy) / 100
}

// moveScore is effectiveness * power * accuracy * STAB, by typing alone.
func moveScore(user, foe *game.BattlePokemon, m data.Move) float64 {
	if m.IsStatus() {
		return 0
	}
	score := game.Effectiveness(game.Type(m.Type), foe.DefensiveTypes()...) * float64(m.Power) * accuracy(m)
	if user.HasSTAB(game.Type(m.Type)) {
		score *= 1.5
	}
	return score
}

func bestScore(user, foe *game.BattlePokemon) float64 {
	best := 0.0
	for _, bm := range user.Moves {
		if bm.PP > 0 {
			best = max(best, moveScore(user, foe, bm.Move))
		}
	}
	return best
}

// matchup is how much harder foe hits p than p hits foe. Below 1 favours p.
func matchup(p, foe *game.BattlePokemon) float64 {
	return (bestScore(foe, p) + 1) / (bestScore(p, foe) + 1)
}
