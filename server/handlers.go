package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"showdown-battle/game"
	"showdown-battle/parser"
)

type statsRequest struct {
	Species string         `json:"species"`
	Level   int            `json:"level,omitempty"`
	Nature  string         `json:"nature,omitempty"`
	EVs     game.EVSpread  `json:"evs"`
	IVs     *game.IVSpread `json:"ivs,omitempty"`
}

func (s *Server) computeStats(c *gin.Context) {
	var req statsRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := SlotSpec{Species: req.Species, Level: req.Level, Nature: req.Nature, EVs: req.EVs, IVs: req.IVs}.toSlot(s.dex)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"species": slot.Species.Name,
		"level":   slot.Level,
		"nature":  slot.Nature.Name,
		"stats":   slot.Stats(),
	})
}

type damageRequest struct {
	Attacker       pokemonSpec       `json:"attacker"`
	Defender       pokemonSpec       `json:"defender"`
	Move           string            `json:"move"`
	AttackerStatus string            `json:"attackerStatus,omitempty"`
	Config         game.DamageConfig `json:"config"`
}

func (s *Server) computeDamage(c *gin.Context) {
	var req damageRequest
	if !bindJSON(c, &req) {
		return
	}
	att, err := req.Attacker.battler(s.dex)
	if err != nil {
		abort(c, err)
		return
	}
	def, err := req.Defender.battler(s.dex)
	if err != nil {
		abort(c, err)
		return
	}
	move, err := s.dex.Move(req.Move)
	if err != nil {
		abort(c, err)
		return
	}
	status, ok := game.ParseStatus(req.AttackerStatus)
	if !ok {
		abort(c, fmt.Errorf("%w: unknown status %q", ErrBadRequest, req.AttackerStatus))
		return
	}
	if _, ok := game.ParseWeather(string(req.Config.Weather)); !ok {
		abort(c, fmt.Errorf("%w: unknown weather %q", ErrBadRequest, req.Config.Weather))
		return
	}
	att.Status = status

	res := game.CalculateDamage(&att, &def, move, req.Config)
	c.JSON(http.StatusOK, gin.H{
		"attacker":      att.Name,
		"defender":      def.Name,
		"move":          move.Name,
		"result":        res,
		"rolls":         game.DamageRolls(res),
		"label":         res.Label(def.MaxHP),
		"effectiveness": game.EffectivenessLabel(res.Effectiveness),
	})
}

type captureRequest struct {
	Species string  `json:"species"`
	HP      int     `json:"hp,omitempty"`
	MaxHP   int     `json:"maxHp,omitempty"`
	Status  string  `json:"status,omitempty"`
	Ball    string  `json:"ball,omitempty"`
	Seed    *uint64 `json:"seed,omitempty"`
}

func (s *Server) attemptCapture(c *gin.Context) {
	var req captureRequest
	if !bindJSON(c, &req) {
		return
	}
	species, err := s.dex.Species(req.Species)
	if err != nil {
		abort(c, err)
		return
	}
	status, ok := game.ParseStatus(req.Status)
	if !ok {
		abort(c, fmt.Errorf("%w: unknown status %q", ErrBadRequest, req.Status))
		return
	}
	maxHP := req.MaxHP
	if maxHP <= 0 {
		maxHP = game.NewTeamSlot(species).Stats().HP
	}
	hp := req.HP
	if hp <= 0 {
		hp = maxHP
	}
	rng, err := seededRNG(req.Seed)
	if err != nil {
		abort(c, err)
		return
	}
	res := game.AttemptCapture(species.CatchRate, hp, maxHP, status, game.BallMultiplier(req.Ball), rng)
	c.JSON(http.StatusOK, gin.H{"species": species.Name, "catchRate": species.CatchRate, "result": res})
}

func seededRNG(seed *uint64) (game.RNG, error) {
	if seed != nil {
		return game.NewRNG(*seed), nil
	}
	v, err := game.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed rng: %w", err)
	}
	return game.NewRNG(v), nil
}

func (s *Server) importTeam(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bindJSON(c, &req) {
		return
	}
	slots, errs := parser.ImportTeam(req.Text, s.dex)
	specs := make([]SlotSpec, 0, len(slots))
	for _, slot := range slots {
		specs = append(specs, fromSlot(slot))
	}
	warnings := make([]string, 0, len(errs))
	for _, err := range errs {
		warnings = append(warnings, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"slots": specs, "errors": warnings})
}

func (s *Server) exportTeam(c *gin.Context) {
	var req struct {
		Slots []SlotSpec `json:"slots"`
	}
	if !bindJSON(c, &req) {
		return
	}
	slots, _, err := TeamRequest{Slots: req.Slots}.slots(s.dex)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": parser.ExportTeam(slots)})
}

func (s *Server) rentalTeam(c *gin.Context) {
	size := game.MaxTeamSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abort(c, fmt.Errorf("%w: size %q", ErrBadRequest, raw))
			return
		}
		size = n
	}
	var seed *uint64
	if raw := c.Query("seed"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			abort(c, fmt.Errorf("%w: seed %q", ErrBadRequest, raw))
			return
		}
		seed = &v
	}
	rng, err := seededRNG(seed)
	if err != nil {
		abort(c, err)
		return
	}
	slots, err := game.GenerateTeam(s.dex, rng, size)
	if err != nil {
		abort(c, err)
		return
	}
	specs := make([]SlotSpec, 0, len(slots))
	for _, slot := range slots {
		specs = append(specs, fromSlot(slot))
	}
	c.JSON(http.StatusOK, gin.H{"slots": specs, "text": parser.ExportTeam(slots)})
}
