package game

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
)

// RNG is the only source of randomness in the engine. *rand.Rand from
// math/rand/v2 satisfies it; tests pass scripted sources.
type RNG interface {
	IntN(n int) int
}

// NewRNG returns a PCG source, so a battle replays exactly from its seed.
func NewRNG(seed uint64) *mathrand.Rand {
	return mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSeed reads a seed from the system's secure random source.
func NewSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
