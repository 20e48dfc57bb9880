// Package data is the species and move metadata provider.
//
// Records are read from Showdown-shaped JSON (the same files the client ships
// as pokedex.json and moves.json) and are immutable once loaded. Every lookup
// is keyed by id, the lowercased alphanumeric form of a display name, so
// "Flabébé", "flabebe" and "FLABÉBÉ" resolve to the same record.
package data

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed pokedex.json moves.json
var embedded embed.FS

var dexLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "dex").Logger()
	return &logger
}

var (
	ErrSpeciesNotFound = errors.New("species not found")
	ErrMoveNotFound    = errors.New("move not found")
)

// MalformedError reports a record the provider refused to load.
type MalformedError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s %q: %s", e.Kind, e.ID, e.Reason)
}

type Category string

const (
	Physical Category = "Physical"
	Special  Category = "Special"
	Status   Category = "Status"
)

// Stats holds six per-stat values in Showdown key order.
type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

func (s Stats) Total() int {
	return s.HP + s.Atk + s.Def + s.SpA + s.SpD + s.Spe
}

type MegaForme struct {
	Stone string `json:"stone"`
	Forme string `json:"forme"`
}

type Species struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Types     []string   `json:"types"`
	BaseStats Stats      `json:"baseStats"`
	Abilities []string   `json:"abilities"`
	CatchRate int        `json:"catchRate"`
	Learnset  []string   `json:"learnset,omitempty"`
	Mega      *MegaForme `json:"mega,omitempty"`
	// BattleOnly names the base species of an in-battle forme.
	BattleOnly string `json:"battleOnly,omitempty"`
}

type Secondary struct {
	Chance int    `json:"chance"`
	Status string `json:"status"`
}

type Move struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Category Category `json:"category"`
	Power    int      `json:"power"`
	// Accuracy is a percentage; zero means the move never misses.
	Accuracy  int            `json:"accuracy"`
	PP        int            `json:"pp"`
	Priority  int            `json:"priority"`
	Target    string         `json:"target,omitempty"`
	Status    string         `json:"status,omitempty"`
	Secondary *Secondary     `json:"secondary,omitempty"`
	Heal      [2]int         `json:"heal,omitempty"`
	Boosts    map[string]int `json:"boosts,omitempty"`
	Weather   string         `json:"weather,omitempty"`
}

func (m Move) IsStatus() bool {
	return m.Category == Status || m.Power == 0
}

// TargetsSelf reports whether the move's effects land on its user.
func (m Move) TargetsSelf() bool {
	return m.Target == "self"
}

type RawPokemonData struct {
	Name       string            `json:"name"`
	Types      []string          `json:"types"`
	BaseStats  Stats             `json:"baseStats"`
	Abilities  map[string]string `json:"abilities"`
	CatchRate  int               `json:"catchRate"`
	Learnset   []string          `json:"learnset"`
	Mega       *MegaForme        `json:"mega"`
	BattleOnly string            `json:"battleOnly"`
}

type RawMoveData struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Power     *int            `json:"basePower"`
	Accuracy  json.RawMessage `json:"accuracy"`
	PP        int             `json:"pp"`
	Priority  int             `json:"priority"`
	Target    string          `json:"target"`
	Status    string          `json:"status"`
	Secondary *Secondary      `json:"secondary"`
	Heal      []int           `json:"heal"`
	Boosts    map[string]int  `json:"boosts"`
	Weather   string          `json:"weather"`
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToID folds a display name into a lookup key.
func ToID(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TypeNames are the eighteen type names in dex order.
var TypeNames = []string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice",
	"Fighting", "Poison", "Ground", "Flying", "Psychic", "Bug",
	"Rock", "Ghost", "Dragon", "Dark", "Steel", "Fairy",
}

var validTypes = func() map[string]bool {
	m := make(map[string]bool, len(TypeNames))
	for _, t := range TypeNames {
		m[t] = true
	}
	return m
}()

var validStatuses = map[string]bool{"brn": true, "par": true, "psn": true, "tox": true, "slp": true, "frz": true}

// Dex is a loaded, read-only set of species and moves.
type Dex struct {
	species map[string]Species
	moves   map[string]Move
}

func NewDex() *Dex {
	return &Dex{
		species: make(map[string]Species),
		moves:   make(map[string]Move),
	}
}

// Load reads species and moves from fsys concurrently. The returned dex is
// complete; a battle must never see a partially loaded provider.
func Load(ctx context.Context, fsys fs.FS, speciesPath, movesPath string) (*Dex, error) {
	var species map[string]Species
	var moves map[string]Move

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		file, err := fsys.Open(speciesPath)
		if err != nil {
			return fmt.Errorf("open species data: %w", err)
		}
		defer file.Close()
		species, err = decodeSpecies(ctx, file)
		return err
	})
	g.Go(func() error {
		file, err := fsys.Open(movesPath)
		if err != nil {
			return fmt.Errorf("open move data: %w", err)
		}
		defer file.Close()
		moves, err = decodeMoves(ctx, file)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dex := &Dex{species: species, moves: moves}
	dex.pruneLearnsets()
	if err := dex.checkMegaFormes(); err != nil {
		return nil, err
	}
	dexLogger().Info().Int("species", len(species)).Int("moves", len(moves)).Msg("dex loaded")
	return dex, nil
}

// Default loads the dex bundled with the binary.
func Default() (*Dex, error) {
	return Load(context.Background(), embedded, "pokedex.json", "moves.json")
}

func (d *Dex) LoadSpecies(r io.Reader) error {
	species, err := decodeSpecies(context.Background(), r)
	if err != nil {
		return err
	}
	for id, s := range species {
		d.species[id] = s
	}
	return nil
}

func (d *Dex) LoadMoves(r io.Reader) error {
	moves, err := decodeMoves(context.Background(), r)
	if err != nil {
		return err
	}
	for id, m := range moves {
		d.moves[id] = m
	}
	return nil
}

func decodeSpecies(ctx context.Context, r io.Reader) (map[string]Species, error) {
	var rawData map[string]RawPokemonData
	if err := json.NewDecoder(r).Decode(&rawData); err != nil {
		return nil, fmt.Errorf("decode species data: %w", err)
	}

	out := make(map[string]Species, len(rawData))
	for key, p := range rawData {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := speciesFromRaw(key, p)
		if err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, nil
}

func speciesFromRaw(key string, p RawPokemonData) (Species, error) {
	id := ToID(p.Name)
	if id == "" {
		id = ToID(key)
	}
	bad := func(reason string) (Species, error) {
		return Species{}, &MalformedError{Kind: "species", ID: key, Reason: reason}
	}
	if p.Name == "" {
		return bad("missing name")
	}
	if len(p.Types) == 0 || len(p.Types) > 2 {
		return bad(fmt.Sprintf("expected 1 or 2 types, got %d", len(p.Types)))
	}
	for _, t := range p.Types {
		if !validTypes[t] {
			return bad("unknown type " + t)
		}
	}
	bs := p.BaseStats
	if bs.HP <= 0 || bs.Atk <= 0 || bs.Def <= 0 || bs.SpA <= 0 || bs.SpD <= 0 || bs.Spe <= 0 {
		return bad("base stats must be positive")
	}
	if p.CatchRate < 1 || p.CatchRate > 255 {
		return bad(fmt.Sprintf("catch rate %d out of range", p.CatchRate))
	}

	// Showdown keys abilities "0", "1", "H", "S"; keep that order.
	slots := make([]string, 0, len(p.Abilities))
	for slot := range p.Abilities {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	abilities := make([]string, 0, len(slots))
	for _, slot := range slots {
		abilities = append(abilities, p.Abilities[slot])
	}

	learnset := make([]string, 0, len(p.Learnset))
	for _, m := range p.Learnset {
		learnset = append(learnset, ToID(m))
	}

	return Species{
		ID:         id,
		Name:       p.Name,
		Types:      p.Types,
		BaseStats:  bs,
		Abilities:  abilities,
		CatchRate:  p.CatchRate,
		Learnset:   learnset,
		Mega:       p.Mega,
		BattleOnly: p.BattleOnly,
	}, nil
}

func decodeMoves(ctx context.Context, r io.Reader) (map[string]Move, error) {
	var rawData map[string]RawMoveData
	if err := json.NewDecoder(r).Decode(&rawData); err != nil {
		return nil, fmt.Errorf("decode move data: %w", err)
	}

	out := make(map[string]Move, len(rawData))
	for key, m := range rawData {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		move, err := moveFromRaw(key, m)
		if err != nil {
			return nil, err
		}
		out[move.ID] = move
	}
	return out, nil
}

func moveFromRaw(key string, m RawMoveData) (Move, error) {
	bad := func(reason string) (Move, error) {
		return Move{}, &MalformedError{Kind: "move", ID: key, Reason: reason}
	}
	if m.Name == "" {
		return bad("missing name")
	}
	if !validTypes[m.Type] {
		return bad("unknown type " + m.Type)
	}
	category := Category(m.Category)
	switch category {
	case Physical, Special, Status:
	default:
		return bad("unknown category " + m.Category)
	}
	if m.PP <= 0 {
		return bad("pp must be positive")
	}

	power := 0
	if m.Power != nil {
		power = *m.Power
	}
	if power < 0 {
		return bad("negative power")
	}
	if category != Status && power == 0 {
		return bad("damaging move without power")
	}

	accuracy, err := parseAccuracy(m.Accuracy)
	if err != nil {
		return bad(err.Error())
	}

	if m.Status != "" && !validStatuses[m.Status] {
		return bad("unknown status " + m.Status)
	}
	if m.Secondary != nil && m.Secondary.Status != "" && !validStatuses[m.Secondary.Status] {
		return bad("unknown secondary status " + m.Secondary.Status)
	}

	var heal [2]int
	if len(m.Heal) == 2 && m.Heal[1] > 0 {
		heal = [2]int{m.Heal[0], m.Heal[1]}
	}

	return Move{
		ID:        ToID(m.Name),
		Name:      m.Name,
		Type:      m.Type,
		Category:  category,
		Power:     power,
		Accuracy:  accuracy,
		PP:        m.PP,
		Priority:  m.Priority,
		Target:    m.Target,
		Status:    m.Status,
		Secondary: m.Secondary,
		Heal:      heal,
		Boosts:    m.Boosts,
		Weather:   m.Weather,
	}, nil
}

// parseAccuracy accepts Showdown's `true` (never misses) or a percentage.
func parseAccuracy(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "true" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("accuracy must be true or a number: %w", err)
	}
	if n <= 0 || n > 100 {
		return 0, fmt.Errorf("accuracy %d out of range", n)
	}
	return n, nil
}

func (d *Dex) pruneLearnsets() {
	for id, s := range d.species {
		kept := s.Learnset[:0]
		for _, m := range s.Learnset {
			if _, ok := d.moves[m]; ok {
				kept = append(kept, m)
				continue
			}
			dexLogger().Warn().Str("species", id).Str("move", m).Msg("dropping unknown learnset move")
		}
		s.Learnset = kept
		d.species[id] = s
	}
}

func (d *Dex) checkMegaFormes() error {
	for id, s := range d.species {
		if s.Mega == nil {
			continue
		}
		if _, ok := d.species[ToID(s.Mega.Forme)]; !ok {
			return &MalformedError{Kind: "species", ID: id, Reason: "mega forme " + s.Mega.Forme + " is not in the dex"}
		}
	}
	return nil
}

func (d *Dex) Species(name string) (Species, error) {
	if s, ok := d.species[ToID(name)]; ok {
		return s, nil
	}
	return Species{}, fmt.Errorf("%w: %s", ErrSpeciesNotFound, name)
}

func (d *Dex) Move(name string) (Move, error) {
	if m, ok := d.moves[ToID(name)]; ok {
		return m, nil
	}
	return Move{}, fmt.Errorf("%w: %s", ErrMoveNotFound, name)
}

// MegaForme resolves the forme a species turns into when holding its stone.
func (d *Dex) MegaForme(s Species, item string) (Species, bool) {
	if s.Mega == nil || ToID(item) != ToID(s.Mega.Stone) {
		return Species{}, false
	}
	forme, ok := d.species[ToID(s.Mega.Forme)]
	return forme, ok
}

// AllSpecies returns every species sorted by id.
func (d *Dex) AllSpecies() []Species {
	out := make([]Species, 0, len(d.species))
	for _, s := range d.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Dex) Learnset(s Species) []Move {
	moves := make([]Move, 0, len(s.Learnset))
	for _, id := range s.Learnset {
		if m, ok := d.moves[id]; ok {
			moves = append(moves, m)
		}
	}
	return moves
}
