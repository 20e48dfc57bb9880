package parser

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"showdown-battle/data"
	"showdown-battle/game"
)

var parserLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "parser").Logger()
	return &logger
}

var (
	ErrNoMoves     = errors.New("pokemon has no usable moves")
	ErrTeamFull    = errors.New("team already has six pokemon")
	ErrMoveSkipped = errors.New("move skipped")
	ErrBadLine     = errors.New("unrecognised value")
)

// ImportError is one problem found in a team text block. Blocks with an
// unknown species or no usable moves are left out of the import; any other
// ImportError only describes a line that was skipped.
type ImportError struct {
	Block   int
	Species string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Species != "" {
		return fmt.Sprintf("block %d (%s): %v", e.Block, e.Species, e.Err)
	}
	return fmt.Sprintf("block %d: %v", e.Block, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ImportTeam reads Showdown team text. It never aborts: bad blocks are
// dropped and reported, the rest are returned in order.
func ImportTeam(text string, dex *data.Dex) ([]game.TeamSlot, []error) {
	var (
		slots []game.TeamSlot
		errs  []error
	)
	for i, block := range splitBlocks(text) {
		n := i + 1
		slot, warnings, err := importSlot(block, dex)
		species := slot.Species.Name
		for _, w := range warnings {
			errs = append(errs, &ImportError{Block: n, Species: species, Err: w})
		}
		if err == nil && len(slots) == game.MaxTeamSize {
			err = ErrTeamFull
		}
		if err != nil {
			parserLogger().Debug().Int("block", n).Err(err).Msg("team block dropped")
			errs = append(errs, &ImportError{Block: n, Species: species, Err: err})
			continue
		}
		slots = append(slots, slot)
	}
	return slots, errs
}

func splitBlocks(text string) [][]string {
	var (
		blocks [][]string
		cur    []string
	)
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "==="):
			// "=== [gen9] Team name ===" headers from multi-team exports
			flush()
		default:
			cur = append(cur, line)
		}
	}
	flush()
	return blocks
}

func importSlot(lines []string, dex *data.Dex) (game.TeamSlot, []error, error) {
	nickname, speciesName, item := parseHeader(lines[0])
	species, err := dex.Species(speciesName)
	if err != nil {
		return game.TeamSlot{}, nil, err
	}
	slot := game.NewTeamSlot(species)
	if nickname != species.Name {
		slot.Nickname = nickname
	}
	slot.Item = item

	var warnings []error
	for _, line := range lines[1:] {
		key, value, hasKey := strings.Cut(line, ":")
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(line, "-"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			m, err := dex.Move(name)
			if err != nil {
				warnings = append(warnings, err)
				continue
			}
			if !slot.AddMove(m) {
				warnings = append(warnings, fmt.Errorf("%w: %s", ErrMoveSkipped, m.Name))
			}
		case strings.HasSuffix(line, " Nature"):
			name := strings.TrimSuffix(line, " Nature")
			if n, ok := game.LookupNature(name); ok {
				slot.Nature = n
			} else {
				warnings = append(warnings, fmt.Errorf("%w: nature %q", ErrBadLine, name))
			}
		case !hasKey:
			warnings = append(warnings, fmt.Errorf("%w: %q", ErrBadLine, line))
		case key == "Ability":
			slot.Ability = canonicalAbility(species, value)
		case key == "Level":
			lvl, err := strconv.Atoi(value)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("%w: level %q", ErrBadLine, value))
				continue
			}
			slot.Level = min(max(lvl, 1), game.MaxLevel)
		case key == "Tera Type":
			if t, ok := game.ParseType(value); ok {
				slot.TeraType = t
			} else {
				warnings = append(warnings, fmt.Errorf("%w: tera type %q", ErrBadLine, value))
			}
		case key == "EVs":
			warnings = append(warnings, parseSpread(value, slot.EVs.Set)...)
		case key == "IVs":
			warnings = append(warnings, parseSpread(value, slot.IVs.Set)...)
		}
		// Shiny, Happiness, Gender and similar cosmetic lines are ignored.
	}

	if len(slot.Moves) == 0 {
		return slot, warnings, ErrNoMoves
	}
	if forme, ok := dex.MegaForme(species, slot.Item); ok {
		slot.Forme = &forme
	}
	return slot, warnings, nil
}

// parseHeader splits "Nickname (Species) (M) @ Item".
func parseHeader(line string) (nickname, species, item string) {
	name := line
	if i := strings.LastIndex(line, " @ "); i >= 0 {
		name, item = line[:i], strings.TrimSpace(line[i+3:])
	}
	name = strings.TrimSpace(name)
	for _, g := range []string{" (M)", " (F)"} {
		name = strings.TrimSuffix(name, g)
	}
	if strings.HasSuffix(name, ")") {
		if i := strings.LastIndex(name, " ("); i > 0 {
			return strings.TrimSpace(name[:i]), name[i+2 : len(name)-1], item
		}
	}
	return name, name, item
}

func canonicalAbility(s data.Species, name string) string {
	for _, a := range s.Abilities {
		if data.ToID(a) == data.ToID(name) {
			return a
		}
	}
	return cases.Title(language.English).String(name)
}

// parseSpread reads "252 Atk / 4 SpD / 252 Spe" through set.
func parseSpread(value string, set func(game.Stat, int) int) []error {
	var errs []error
	for _, part := range strings.Split(value, "/") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			errs = append(errs, fmt.Errorf("%w: spread %q", ErrBadLine, strings.TrimSpace(part)))
			continue
		}
		n, err := strconv.Atoi(fields[0])
		stat, ok := game.ParseStat(fields[1])
		if err != nil || !ok {
			errs = append(errs, fmt.Errorf("%w: spread %q", ErrBadLine, strings.TrimSpace(part)))
			continue
		}
		set(stat, n)
	}
	return errs
}

func ExportTeam(slots []game.TeamSlot) string {
	blocks := make([]string, 0, len(slots))
	for _, s := range slots {
		blocks = append(blocks, ExportSlot(s))
	}
	return strings.Join(blocks, "\n")
}

// ExportSlot writes one block in the form ImportTeam reads back.
func ExportSlot(s game.TeamSlot) string {
	var b strings.Builder
	name := s.Species.Name
	if s.Nickname != "" && s.Nickname != s.Species.Name {
		name = fmt.Sprintf("%s (%s)", s.Nickname, s.Species.Name)
	}
	if s.Item != "" {
		name += " @ " + s.Item
	}
	b.WriteString(name + "\n")
	if s.Ability != "" {
		fmt.Fprintf(&b, "Ability: %s\n", s.Ability)
	}
	if s.Level != 0 && s.Level != game.DefaultLevel {
		fmt.Fprintf(&b, "Level: %d\n", s.Level)
	}
	if s.TeraType != game.TypeNone {
		fmt.Fprintf(&b, "Tera Type: %s\n", s.TeraType)
	}
	if evs := formatSpread(s.EVs.Get, 0); evs != "" {
		fmt.Fprintf(&b, "EVs: %s\n", evs)
	}
	if s.Nature.Name != "" {
		fmt.Fprintf(&b, "%s Nature\n", s.Nature.Name)
	}
	if ivs := formatSpread(s.IVs.Get, game.MaxIV); ivs != "" {
		fmt.Fprintf(&b, "IVs: %s\n", ivs)
	}
	for _, m := range s.Moves {
		fmt.Fprintf(&b, "- %s\n", m.Name)
	}
	return b.String()
}

// formatSpread lists every stat whose value differs from skip.
func formatSpread(get func(game.Stat) int, skip int) string {
	var parts []string
	for _, stat := range game.AllStats {
		if v := get(stat); v != skip {
			parts = append(parts, fmt.Sprintf("%d %s", v, stat))
		}
	}
	return strings.Join(parts, " / ")
}
