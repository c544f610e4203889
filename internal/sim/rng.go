package sim

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue derives a stable int64 seed from a root seed string
// and a subsystem label, so independent subsystems draw from independent but
// reproducible streams.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds a seeded source for one subsystem stream.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}
