package forecast

import (
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	seedDateLayout = "20060102"
	seedModulus    = 1 << 32
	// seedStream selects the PCG stream; fixed so a seed always maps to the same sequence.
	seedStream = 0x9e3779b97f4a7c15
)

// Seed derives a 32-bit seed from the calendar date of the latest observation.
func Seed(last time.Time) uint64 {
	return xxhash.Sum64String(last.Format(seedDateLayout)) % seedModulus
}

// NewSource returns a fresh generator for one forecast. Never share it across requests.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seedStream)
}
