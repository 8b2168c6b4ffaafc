package bot

import (
	"math/rand/v2"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
)

// RandSource is the randomness the samplers draw from.
// Tests substitute a deterministic implementation.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// systemRand delegates to math/rand/v2 package-level functions, which are
// safe for concurrent use across webhook events.
type systemRand struct{}

func (systemRand) IntN(n int) int   { return rand.IntN(n) }
func (systemRand) Float64() float64 { return rand.Float64() }

// NewSystemRand returns the process-wide random source.
func NewSystemRand() RandSource { return systemRand{} }

// WeightedPick selects one shop by accept/reject sampling: draw one
// candidate uniformly at random with replacement, draw an independent
// uniform value in [0,1), and accept when the value falls below the
// candidate's rate. A rate >= 1 accepts on the first draw it is picked; a
// rate <= 0 never accepts.
//
// This is not normalized-probability selection: a higher rate raises the
// per-draw acceptance chance, but selection frequency is not proportional
// to it.
//
// maxAttempts bounds the loop; the unbounded variant spins forever when
// every candidate has a non-positive rate. Returns the accepted shop and
// the number of draws used, or nil when the set is empty or the budget is
// exhausted.
func WeightedPick(r RandSource, shops []storage.Shop, maxAttempts int) (*storage.Shop, int) {
	if len(shops) == 0 {
		return nil, 0
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := &shops[r.IntN(len(shops))]
		if r.Float64() < candidate.Rate {
			return candidate, attempt
		}
	}
	return nil, maxAttempts
}

// UniformPick returns one item chosen uniformly at random.
// Returns empty string for an empty list.
func UniformPick(r RandSource, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.IntN(len(items))]
}
