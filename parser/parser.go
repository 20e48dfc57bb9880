// Package parser converts between battle data and the text formats Showdown
// speaks: the team paste format and the battle protocol.
package parser

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"showdown-battle/game"
)

var weatherNames = map[game.Weather]string{
	game.WeatherRain: "RainDance",
	game.WeatherSun:  "SunnyDay",
	game.WeatherSand: "Sandstorm",
	game.WeatherSnow: "Snow",
}

func ident(side game.Side, name string) string {
	return side.String() + "a: " + name
}

func line(parts ...string) string {
	return "|" + strings.Join(parts, "|")
}

func hpText(hp, maxHP int, status game.Status) string {
	if hp <= 0 && maxHP > 0 {
		return "0 fnt"
	}
	s := fmt.Sprintf("%d/%d", hp, maxHP)
	if status != game.StatusNone {
		s += " " + string(status)
	}
	return s
}

func from(cause string) []string {
	if cause == "" {
		return nil
	}
	return []string{"[from] " + cause}
}

// FormatEntry renders e as one battle protocol line.
func FormatEntry(e game.LogEntry) string {
	id := ident(e.Side, e.Pokemon)
	switch e.Kind {
	case game.LogTurn:
		return line("turn", strconv.Itoa(e.Turn))
	case game.LogSwitch:
		return line("switch", id, e.Target, hpText(e.HP, e.MaxHP, e.Status))
	case game.LogMove:
		parts := []string{"move", id, e.Move}
		if e.Target != "" {
			parts = append(parts, ident(e.Side.Opponent(), e.Target))
		}
		return line(parts...)
	case game.LogMiss:
		return line("-miss", id, ident(e.Side.Opponent(), e.Target))
	case game.LogFail:
		return line("-fail", id, e.Move)
	case game.LogCritical:
		return line("-crit", id)
	case game.LogEffectiveness:
		switch {
		case e.Effectiveness == 0:
			return line("-immune", id)
		case e.Effectiveness > 1:
			return line("-supereffective", id)
		default:
			return line("-resisted", id)
		}
	case game.LogDamage:
		return line(append([]string{"-damage", id, hpText(e.HP, e.MaxHP, game.StatusNone)}, from(e.Cause)...)...)
	case game.LogHeal:
		return line(append([]string{"-heal", id, hpText(e.HP, e.MaxHP, game.StatusNone)}, from(e.Cause)...)...)
	case game.LogStatus:
		return line("-status", id, string(e.Status))
	case game.LogCureStatus:
		return line("-curestatus", id, string(e.Status))
	case game.LogCant:
		return line("cant", id, string(e.Status))
	case game.LogFaint:
		return line("faint", id)
	case game.LogBoost:
		stat, _ := game.ParseStat(e.Stat)
		if e.Stage < 0 {
			return line("-unboost", id, stat.Key(), strconv.Itoa(-e.Stage))
		}
		return line("-boost", id, stat.Key(), strconv.Itoa(e.Stage))
	case game.LogMechanic:
		switch e.Mechanic {
		case game.MechanicMega:
			return line("-mega", id, e.Target, e.Cause)
		case game.MechanicTera:
			return line("-terastallize", id, e.Target)
		}
		return line("-start", id, "Dynamax", hpText(e.HP, e.MaxHP, game.StatusNone))
	case game.LogMechanicEnd:
		return line("-end", id, "Dynamax", hpText(e.HP, e.MaxHP, game.StatusNone))
	case game.LogWeather:
		name, ok := weatherNames[e.Weather]
		if !ok {
			return line("-weather", "none")
		}
		if e.Cause == "" {
			return line("-weather", name)
		}
		return line("-weather", name, "[from] "+e.Cause)
	case game.LogWin:
		return line("win", e.Pokemon)
	case game.LogTie:
		return line("tie")
	}
	return line(string(e.Kind))
}

// FormatLog renders every entry, one protocol line each.
func FormatLog(entries []game.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(FormatEntry(e))
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseLog reads protocol text back into log entries, carrying the turn
// number from the most recent turn line. Unknown lines are skipped.
func ParseLog(text string) ([]game.LogEntry, error) {
	var (
		out  []game.LogEntry
		turn int
	)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		e, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if e.Kind == game.LogTurn {
			turn = e.Turn
		}
		e.Turn = turn
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read protocol: %w", err)
	}
	return out, nil
}

// ParseLine decodes one protocol line. Turn is only set for turn lines.
func ParseLine(raw string) (game.LogEntry, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "|")
	if len(parts) < 2 || parts[0] != "" {
		return game.LogEntry{}, false
	}
	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	var e game.LogEntry
	withIdent := func(kind game.LogKind) bool {
		side, name, ok := parseIdent(arg(2))
		if !ok {
			return false
		}
		e.Kind, e.Side, e.Pokemon = kind, side, name
		return true
	}

	switch parts[1] {
	case "turn":
		t, err := strconv.Atoi(arg(2))
		if err != nil {
			return e, false
		}
		e.Kind, e.Turn = game.LogTurn, t
		return e, true
	case "switch", "drag":
		if !withIdent(game.LogSwitch) {
			return e, false
		}
		e.Target = strings.TrimSpace(strings.Split(arg(3), ",")[0])
		e.HP, e.MaxHP, e.Status = parseHP(arg(4))
	case "move":
		if !withIdent(game.LogMove) {
			return e, false
		}
		e.Move = arg(3)
		if _, target, ok := parseIdent(arg(4)); ok {
			e.Target = target
		}
	case "-miss":
		if !withIdent(game.LogMiss) {
			return e, false
		}
		_, e.Target, _ = parseIdent(arg(3))
	case "-fail":
		if !withIdent(game.LogFail) {
			return e, false
		}
		e.Move = arg(3)
	case "-crit":
		if !withIdent(game.LogCritical) {
			return e, false
		}
	case "-supereffective", "-resisted", "-immune":
		if !withIdent(game.LogEffectiveness) {
			return e, false
		}
		switch parts[1] {
		case "-supereffective":
			e.Effectiveness = 2
		case "-resisted":
			e.Effectiveness = 0.5
		}
	case "-damage", "-heal":
		kind := game.LogDamage
		if parts[1] == "-heal" {
			kind = game.LogHeal
		}
		if !withIdent(kind) {
			return e, false
		}
		e.HP, e.MaxHP, _ = parseHP(arg(3))
		e.Cause = parseFrom(arg(4))
	case "-status", "-curestatus", "cant":
		kind := map[string]game.LogKind{"-status": game.LogStatus, "-curestatus": game.LogCureStatus, "cant": game.LogCant}[parts[1]]
		if !withIdent(kind) {
			return e, false
		}
		e.Status, _ = game.ParseStatus(arg(3))
	case "faint":
		if !withIdent(game.LogFaint) {
			return e, false
		}
	case "-boost", "-unboost", "-setboost":
		if !withIdent(game.LogBoost) {
			return e, false
		}
		stat, ok := game.ParseStat(arg(3))
		n, err := strconv.Atoi(arg(4))
		if !ok || err != nil {
			return e, false
		}
		if parts[1] == "-unboost" {
			n = -n
		}
		e.Stat, e.Stage = stat.String(), n
	case "-mega":
		if !withIdent(game.LogMechanic) {
			return e, false
		}
		e.Mechanic, e.Target, e.Cause = game.MechanicMega, arg(3), arg(4)
	case "-terastallize":
		if !withIdent(game.LogMechanic) {
			return e, false
		}
		e.Mechanic, e.Target = game.MechanicTera, arg(3)
	case "-start", "-end":
		if arg(3) != "Dynamax" {
			return e, false
		}
		kind := game.LogMechanic
		if parts[1] == "-end" {
			kind = game.LogMechanicEnd
		}
		if !withIdent(kind) {
			return e, false
		}
		e.Mechanic = game.MechanicDynamax
		e.HP, e.MaxHP, _ = parseHP(arg(4))
	case "-weather":
		e.Kind = game.LogWeather
		for w, name := range weatherNames {
			if name == arg(2) {
				e.Weather = w
			}
		}
		e.Cause = parseFrom(arg(3))
	case "win":
		e.Kind, e.Pokemon = game.LogWin, arg(2)
	case "tie":
		e.Kind = game.LogTie
	default:
		return e, false
	}
	return e, true
}

// parseIdent splits "p2a: Garchomp" into side and name.
func parseIdent(s string) (game.Side, string, bool) {
	pos, name, ok := strings.Cut(s, ": ")
	if !ok || len(pos) < 2 {
		return game.SideOne, "", false
	}
	switch pos[:2] {
	case "p1":
		return game.SideOne, name, true
	case "p2":
		return game.SideTwo, name, true
	}
	return game.SideOne, "", false
}

// parseHP reads "143/183", "143/183 par" and "0 fnt".
func parseHP(s string) (hp, maxHP int, status game.Status) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0, game.StatusNone
	}
	cur, total, _ := strings.Cut(fields[0], "/")
	hp, _ = strconv.Atoi(cur)
	maxHP, _ = strconv.Atoi(total)
	if len(fields) > 1 {
		status, _ = game.ParseStatus(fields[1])
	}
	return hp, maxHP, status
}

func parseFrom(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "[from]"))
}
