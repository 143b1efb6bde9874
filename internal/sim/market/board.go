// Package market holds the shared price board for the five commodities.
package market

import (
	"math/rand"

	"drugwars.ai/internal/protocol"
)

// basePrices seed the board at the start of a run.
var basePrices = map[string]int{
	"cocaine": 100,
	"heroin":  120,
	"meth":    90,
	"weed":    50,
	"ecstasy": 80,
}

// Board is the single shared price board. Prices drift by a bounded random
// walk each day and never fall below the floor.
type Board struct {
	prices map[string]int
	floor  int
	jitter int
	rng    *rand.Rand
}

func NewBoard(rng *rand.Rand, floor, jitter int) *Board {
	b := &Board{
		prices: make(map[string]int, len(protocol.Drugs)),
		floor:  floor,
		jitter: jitter,
		rng:    rng,
	}
	for _, d := range protocol.Drugs {
		b.prices[d] = basePrices[d]
	}
	return b
}

// Price returns the current price for drug, or 0 for an unknown key.
func (b *Board) Price(drug string) int {
	return b.prices[drug]
}

// Update applies one random walk step of [-jitter, +jitter] to every price,
// clamping at the floor.
func (b *Board) Update() {
	for _, d := range protocol.Drugs {
		step := b.rng.Intn(2*b.jitter+1) - b.jitter
		p := b.prices[d] + step
		if p < b.floor {
			p = b.floor
		}
		b.prices[d] = p
	}
}

// Snapshot returns an independent copy of the current prices, safe to keep in
// history records after later updates.
func (b *Board) Snapshot() map[string]int {
	out := make(map[string]int, len(b.prices))
	for d, p := range b.prices {
		out[d] = p
	}
	return out
}
