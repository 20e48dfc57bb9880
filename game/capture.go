package game

import (
	"math"

	"showdown-battle/data"
)

const (
	maxCatchValue = 255
	shakeDraws    = 4
	shakeRange    = 65536
)

type CaptureResult struct {
	Shakes int  `json:"shakes"`
	Caught bool `json:"caught"`
	// Probability is the chance this attempt had of succeeding.
	Probability float64 `json:"probability"`
}

func statusCatchMultiplier(s Status) float64 {
	switch s {
	case StatusSleep, StatusFreeze:
		return 2.5
	case StatusParalyze, StatusBurn, StatusPoison, StatusToxic:
		return 1.5
	}
	return 1
}

var balls = map[string]float64{
	"pokeball":   1,
	"greatball":  1.5,
	"ultraball":  2,
	"masterball": 255,
}

// BallMultiplier returns the catch multiplier for a ball name such as
// "Ultra Ball". Unknown balls count as a Poke Ball.
func BallMultiplier(name string) float64 {
	if m, ok := balls[data.ToID(name)]; ok {
		return m
	}
	return 1
}

// CatchValue is the modified catch rate a, floored and never below 1.
func CatchValue(catchRate, currentHP, maxHP int, status Status, ball float64) int {
	if maxHP <= 0 {
		maxHP = 1
	}
	currentHP = clamp(currentHP, 1, maxHP)
	if ball <= 0 {
		ball = 1
	}
	num := float64(3*maxHP-2*currentHP) * float64(catchRate) * ball * statusCatchMultiplier(status)
	a := int(math.Floor(num / float64(3*maxHP)))
	if a < 1 {
		a = 1
	}
	return a
}

// ShakeThreshold is b: each of the four draws in [0, 65535] must fall
// below it for the Pokemon to stay in the ball.
func ShakeThreshold(a int) int {
	if a >= maxCatchValue {
		return shakeRange
	}
	return int(shakeRange / math.Sqrt(math.Sqrt(float64(maxCatchValue)/float64(a))))
}

// AttemptCapture throws a ball at a wild Pokemon. Shakes counts the
// consecutive successful draws, so a failed throw still reports partial
// progress.
func AttemptCapture(catchRate, currentHP, maxHP int, status Status, ball float64, rng RNG) CaptureResult {
	a := CatchValue(catchRate, currentHP, maxHP, status, ball)
	if a >= maxCatchValue {
		return CaptureResult{Shakes: shakeDraws, Caught: true, Probability: 1}
	}
	b := ShakeThreshold(a)
	res := CaptureResult{Probability: math.Pow(float64(b)/shakeRange, shakeDraws)}
	for range shakeDraws {
		if rng.IntN(shakeRange) >= b {
			return res
		}
		res.Shakes++
	}
	res.Caught = true
	return res
}
