package game

import "math/rand"

// flavorEvents is the fixed pool of daily color text. Events carry no
// mechanical effect; they only feed the agent's context.
var flavorEvents = []string{
	"You found a hidden stash in your inventory!",
	"A rival gang is encroaching on your territory.",
	"Market prices have shifted unexpectedly.",
	"You received a loan offer from a shady character.",
	"Nothing happened today.",
}

func rollEvent(rng *rand.Rand) string {
	return flavorEvents[rng.Intn(len(flavorEvents))]
}
