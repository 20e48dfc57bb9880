package game

import (
	"showdown-battle/data"
)

const (
	switchPriority = 7
	critChance     = 24
	maxToxic       = 15
)

var struggle = data.Move{
	ID:       "struggle",
	Name:     "Struggle",
	Type:     string(TypeNormal),
	Category: data.Physical,
	Power:    50,
	PP:       1,
}

type turnAction struct {
	side     Side
	action   Action
	priority int
	speed    int
}

func (b *Battle) resolveTurn(actions [2]Action) {
	// Mechanics activate before anything moves, so a mega's new speed
	// already counts for this turn's order.
	for _, side := range []Side{SideOne, SideTwo} {
		if m := actions[side].Mechanic; m != nil {
			b.activateMechanic(side, m)
		}
	}

	for _, ta := range b.orderActions(actions) {
		if b.state.ended() {
			return
		}
		active := b.state.Active(ta.side)
		if active == nil || active.Fainted {
			continue
		}
		switch ta.action.Kind {
		case ActionSwitch:
			b.switchIn(ta.side, ta.action.Index)
		case ActionMove:
			b.useMove(ta.side, ta.action.Index)
		}
		if b.checkEnd() {
			return
		}
	}

	b.endOfTurn()
	if b.checkEnd() {
		return
	}

	for _, side := range []Side{SideOne, SideTwo} {
		team := &b.state.Teams[side]
		if p := team.ActivePokemon(); p.Fainted && team.hasReserve() {
			b.state.ForceSwitch[side] = true
		}
	}
	battleLogger().Debug().Int("turn", b.state.Turn).Msg("turn resolved")
	if b.state.ForceSwitch[SideOne] || b.state.ForceSwitch[SideTwo] {
		b.state.Phase = PhaseForceSwitch
		return
	}
	b.startTurn()
}

// orderActions sorts the two actions: switches first, then by move
// priority, then by effective speed, with exact ties decided by a coin flip.
func (b *Battle) orderActions(actions [2]Action) [2]turnAction {
	var tas [2]turnAction
	for _, side := range []Side{SideOne, SideTwo} {
		a := actions[side]
		p := b.state.Active(side)
		ta := turnAction{side: side, action: a, speed: p.EffectiveSpeed()}
		switch {
		case a.Kind == ActionSwitch:
			ta.priority = switchPriority
		case a.Index != StruggleIndex:
			ta.priority = p.Moves[a.Index].Move.Priority
		}
		tas[side] = ta
	}

	one, two := tas[SideOne], tas[SideTwo]
	switch {
	case one.priority != two.priority:
		if one.priority > two.priority {
			return [2]turnAction{one, two}
		}
		return [2]turnAction{two, one}
	case one.speed != two.speed:
		if one.speed > two.speed {
			return [2]turnAction{one, two}
		}
		return [2]turnAction{two, one}
	}
	if b.rng.IntN(2) == 0 {
		return [2]turnAction{one, two}
	}
	return [2]turnAction{two, one}
}

func (b *Battle) activateMechanic(side Side, m Mechanic) {
	team := &b.state.Teams[side]
	p := team.ActivePokemon()
	if !team.canUseMechanic(m) || !canActivate(p, m) {
		return
	}
	activate(p, m)
	team.MechanicUsed = true
	e := LogEntry{Kind: LogMechanic, Side: side, Pokemon: p.Name, Mechanic: m.Kind(), HP: p.HP, MaxHP: p.MaxHP}
	switch m.(type) {
	case MegaEvolution:
		e.Target = p.Species.Name
		e.Cause = p.Item
	case Terastallize:
		e.Target = string(p.TeraType)
	}
	b.log(e)
}

func (b *Battle) switchIn(side Side, index int) {
	team := &b.state.Teams[side]
	if old := team.ActivePokemon(); old != nil && old.Active {
		if old.Dynamaxed {
			endDynamax(old)
			b.log(LogEntry{Kind: LogMechanicEnd, Side: side, Pokemon: old.Name, Mechanic: MechanicDynamax, HP: old.HP, MaxHP: old.MaxHP})
		}
		old.resetVolatiles()
		old.Active = false
	}
	team.Active = index
	p := team.ActivePokemon()
	p.Active = true
	b.log(LogEntry{Kind: LogSwitch, Side: side, Pokemon: p.Name, Target: p.Species.Name, HP: p.HP, MaxHP: p.MaxHP, Status: p.Status})

	switch data.ToID(p.Ability) {
	case "drizzle":
		b.setWeather(WeatherRain, p.Ability)
	case "drought":
		b.setWeather(WeatherSun, p.Ability)
	case "sandstream":
		b.setWeather(WeatherSand, p.Ability)
	case "snowwarning":
		b.setWeather(WeatherSnow, p.Ability)
	}
}

func (b *Battle) setWeather(w Weather, cause string) bool {
	if w == WeatherNone || b.state.Weather == w {
		return false
	}
	b.state.Weather = w
	b.state.WeatherTurns = WeatherDuration
	b.log(LogEntry{Kind: LogWeather, Weather: w, Cause: cause})
	return true
}

// canAct runs the sleep, freeze and paralysis checks before a move.
func (b *Battle) canAct(side Side, p *BattlePokemon) bool {
	switch p.Status {
	case StatusSleep:
		if p.SleepTurns > 0 {
			p.SleepTurns--
			b.log(LogEntry{Kind: LogCant, Side: side, Pokemon: p.Name, Status: StatusSleep})
			return false
		}
		b.cureStatus(side, p)
	case StatusFreeze:
		if b.rng.IntN(5) != 0 {
			b.log(LogEntry{Kind: LogCant, Side: side, Pokemon: p.Name, Status: StatusFreeze})
			return false
		}
		b.cureStatus(side, p)
	case StatusParalyze:
		if b.rng.IntN(4) == 0 {
			b.log(LogEntry{Kind: LogCant, Side: side, Pokemon: p.Name, Status: StatusParalyze})
			return false
		}
	}
	return true
}

func (b *Battle) cureStatus(side Side, p *BattlePokemon) {
	b.log(LogEntry{Kind: LogCureStatus, Side: side, Pokemon: p.Name, Status: p.Status})
	p.Status = StatusNone
	p.SleepTurns = 0
	p.ToxicCounter = 0
}

func (b *Battle) useMove(side Side, index int) {
	user := b.state.Active(side)
	target := b.state.Active(side.Opponent())
	if !b.canAct(side, user) {
		return
	}

	move := struggle
	if index != StruggleIndex {
		bm := &user.Moves[index]
		if bm.PP <= 0 {
			b.log(LogEntry{Kind: LogFail, Side: side, Pokemon: user.Name, Move: bm.Move.Name})
			return
		}
		bm.PP--
		move = bm.Move
	}
	b.log(LogEntry{Kind: LogMove, Side: side, Pokemon: user.Name, Target: target.Name, Move: move.Name})

	if !move.TargetsSelf() && move.Target != "all" && target.Fainted {
		b.log(LogEntry{Kind: LogFail, Side: side, Pokemon: user.Name, Move: move.Name})
		return
	}
	if move.Accuracy > 0 && !move.TargetsSelf() && !user.hasAbility("noguard") && !target.hasAbility("noguard") {
		if b.rng.IntN(100) >= move.Accuracy {
			b.log(LogEntry{Kind: LogMiss, Side: side, Pokemon: user.Name, Target: target.Name, Move: move.Name})
			return
		}
	}

	if move.IsStatus() {
		b.useStatusMove(side, user, target, move)
		return
	}

	crit := b.rng.IntN(critChance) == 0
	res := CalculateDamage(user, target, move, DamageConfig{Critical: crit, Weather: b.state.Weather})
	foe := side.Opponent()
	if res.Effectiveness == 0 {
		b.log(LogEntry{Kind: LogEffectiveness, Side: foe, Pokemon: target.Name, Move: move.Name})
		return
	}
	dealt := target.takeDamage(RollDamage(res, b.rng))
	if crit {
		b.log(LogEntry{Kind: LogCritical, Side: foe, Pokemon: target.Name})
	}
	if res.Effectiveness != 1 {
		b.log(LogEntry{Kind: LogEffectiveness, Side: foe, Pokemon: target.Name, Move: move.Name, Effectiveness: res.Effectiveness})
	}
	b.log(LogEntry{Kind: LogDamage, Side: foe, Pokemon: target.Name, Move: move.Name, Amount: dealt, HP: target.HP, MaxHP: target.MaxHP})

	if target.HP > 0 {
		if Type(move.Type) == TypeFire && target.Status == StatusFreeze {
			b.cureStatus(foe, target)
		}
		if sec := move.Secondary; sec != nil && sec.Status != "" && b.rng.IntN(100) < sec.Chance {
			b.inflictStatus(foe, target, Status(sec.Status))
		}
	}
	b.checkFaint(foe, target)

	if move.ID == struggle.ID {
		b.indirectDamage(side, user, user.fraction(1, 4), "recoil", true)
	} else if dealt > 0 && user.hasItem("lifeorb") {
		b.indirectDamage(side, user, user.fraction(1, 10), user.Item, false)
	}
}

func (b *Battle) useStatusMove(side Side, user, target *BattlePokemon, move data.Move) {
	effect := false
	if move.Status != "" {
		effect = b.inflictStatus(side.Opponent(), target, Status(move.Status)) || effect
	}
	if move.Heal[1] > 0 {
		amount := user.MaxHP * move.Heal[0] / move.Heal[1]
		if healed := user.heal(amount); healed > 0 {
			b.log(LogEntry{Kind: LogHeal, Side: side, Pokemon: user.Name, Amount: healed, HP: user.HP, MaxHP: user.MaxHP, Move: move.Name})
			effect = true
		}
	}
	if len(move.Boosts) > 0 {
		recipient, recipientSide := target, side.Opponent()
		if move.TargetsSelf() {
			recipient, recipientSide = user, side
		}
		effect = b.applyBoosts(recipientSide, recipient, move.Boosts) || effect
	}
	if move.Weather != "" {
		if w, ok := ParseWeather(move.Weather); ok {
			effect = b.setWeather(w, move.Name) || effect
		}
	}
	hasModeledEffect := move.Status != "" || move.Heal[1] > 0 || len(move.Boosts) > 0 || move.Weather != ""
	if hasModeledEffect && !effect {
		b.log(LogEntry{Kind: LogFail, Side: side, Pokemon: user.Name, Move: move.Name})
	}
}

// statusImmune reports whether p cannot be given s by its typing or ability.
func (b *Battle) statusImmune(p *BattlePokemon, s Status) bool {
	switch s {
	case StatusBurn:
		return p.HasType(TypeFire) || p.hasAbility("waterveil")
	case StatusParalyze:
		return p.HasType(TypeElectric) || p.hasAbility("limber")
	case StatusPoison, StatusToxic:
		return p.HasType(TypePoison) || p.HasType(TypeSteel) || p.hasAbility("immunity")
	case StatusSleep:
		return p.hasAbility("insomnia") || p.hasAbility("vitalspirit")
	case StatusFreeze:
		return p.HasType(TypeIce) || p.hasAbility("magmaarmor") || b.state.Weather == WeatherSun
	}
	return true
}

func (b *Battle) inflictStatus(side Side, p *BattlePokemon, s Status) bool {
	if p.Fainted || p.Status != StatusNone || b.statusImmune(p, s) {
		return false
	}
	p.Status = s
	switch s {
	case StatusSleep:
		p.SleepTurns = 1 + b.rng.IntN(3)
	case StatusToxic:
		p.ToxicCounter = 1
	}
	b.log(LogEntry{Kind: LogStatus, Side: side, Pokemon: p.Name, Status: s})
	return true
}

func (b *Battle) applyBoosts(side Side, p *BattlePokemon, boosts map[string]int) bool {
	changed := false
	for _, stat := range AllStats[1:] {
		delta, ok := boosts[stat.Key()]
		if !ok || delta == 0 {
			continue
		}
		before := p.Boosts[stat]
		p.Boosts[stat] = clamp(before+delta, MinStage, MaxStage)
		if moved := p.Boosts[stat] - before; moved != 0 {
			changed = true
			b.log(LogEntry{Kind: LogBoost, Side: side, Pokemon: p.Name, Stat: stat.String(), Stage: moved})
		}
	}
	return changed
}

// indirectDamage deals damage that is not from a move hit. Magic Guard
// blocks it unless direct is set.
func (b *Battle) indirectDamage(side Side, p *BattlePokemon, amount int, cause string, direct bool) {
	if p.Fainted || (!direct && p.hasAbility("magicguard")) {
		return
	}
	dealt := p.takeDamage(amount)
	b.log(LogEntry{Kind: LogDamage, Side: side, Pokemon: p.Name, Amount: dealt, HP: p.HP, MaxHP: p.MaxHP, Cause: cause})
	b.checkFaint(side, p)
}

func (b *Battle) checkFaint(side Side, p *BattlePokemon) {
	if p.Fainted || p.HP > 0 {
		return
	}
	p.Fainted = true
	endDynamax(p)
	b.log(LogEntry{Kind: LogFaint, Side: side, Pokemon: p.Name})
}

func (b *Battle) endOfTurn() {
	order := b.fieldOrder()

	if b.state.Weather != WeatherNone {
		if b.state.Weather == WeatherSand {
			for _, side := range order {
				p := b.state.Active(side)
				if p.Fainted || p.HasType(TypeRock) || p.HasType(TypeGround) || p.HasType(TypeSteel) {
					continue
				}
				b.indirectDamage(side, p, p.fraction(1, 16), "sandstorm", false)
			}
		}
		b.state.WeatherTurns--
		if b.state.WeatherTurns <= 0 {
			b.state.Weather = WeatherNone
			b.state.WeatherTurns = 0
			b.log(LogEntry{Kind: LogWeather, Weather: WeatherNone, Cause: "end"})
		}
	}

	for _, side := range order {
		p := b.state.Active(side)
		if p.Fainted {
			continue
		}
		if p.hasItem("leftovers") && p.HP < p.MaxHP {
			healed := p.heal(p.fraction(1, 16))
			b.log(LogEntry{Kind: LogHeal, Side: side, Pokemon: p.Name, Amount: healed, HP: p.HP, MaxHP: p.MaxHP, Cause: p.Item})
		}
		switch p.Status {
		case StatusBurn:
			b.indirectDamage(side, p, p.fraction(1, 16), string(StatusBurn), false)
		case StatusPoison:
			b.indirectDamage(side, p, p.fraction(1, 8), string(StatusPoison), false)
		case StatusToxic:
			n := max(p.ToxicCounter, 1)
			b.indirectDamage(side, p, p.fraction(n, 16), string(StatusToxic), false)
			p.ToxicCounter = min(n+1, maxToxic)
		}
		if p.Dynamaxed && !p.Fainted {
			p.DynamaxTurns--
			if p.DynamaxTurns <= 0 {
				endDynamax(p)
				b.log(LogEntry{Kind: LogMechanicEnd, Side: side, Pokemon: p.Name, Mechanic: MechanicDynamax, HP: p.HP, MaxHP: p.MaxHP})
			}
		}
	}
}
