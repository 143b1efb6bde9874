package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"drugwars.ai/internal/protocol"
	"drugwars.ai/internal/sim/tuning"
)

// EncounterChooser picks one option token out of a law-enforcement option
// set. Implementations delegate to the external agent; any error or
// unrecognized token resolves to the jail default.
type EncounterChooser interface {
	ChooseEncounter(ctx context.Context, view TurnView, options map[string]string) (string, error)
}

// CheckEncounter evaluates the daily law-enforcement risk. It increments the
// in-location counter first; only past the safety threshold does each day
// carry an independent percentage draw. On a hit it runs the full encounter
// and returns the resolution message; otherwise it returns "".
func CheckEncounter(ctx context.Context, st *State, rng *rand.Rand, tune tuning.Tuning, chooser EncounterChooser, view TurnView) string {
	st.TurnsInLocation++
	if st.TurnsInLocation <= tune.MaxSafeTurns {
		return ""
	}
	if rng.Intn(100)+1 > tune.EncounterPercent {
		return ""
	}
	return resolveEncounter(ctx, st, rng, tune, chooser, view)
}

// resolveEncounter builds the four-option set, delegates the choice, and
// applies the chosen outcome. Every failure path lands on jail.
func resolveEncounter(ctx context.Context, st *State, rng *rand.Rand, tune tuning.Tuning, chooser EncounterChooser, view TurnView) string {
	fine := tune.FineMin + rng.Intn(tune.FineMax-tune.FineMin+1)

	options := map[string]string{
		protocol.EncounterPayFine:       fmt.Sprintf("Pay a fine of $%d", fine),
		protocol.EncounterLoseInventory: "Lose all of a random drug in your inventory",
		protocol.EncounterGoToJail:      fmt.Sprintf("Go to jail for %d-%d days, keeping inventory and cash intact", tune.JailMinDays, tune.JailMaxDays),
		protocol.EncounterBribe:         fmt.Sprintf("Bribe the official for $%d", tune.BribeCost),
	}

	decision := protocol.EncounterGoToJail
	if chooser != nil {
		tok, err := chooser.ChooseEncounter(ctx, view, options)
		tok = strings.ToLower(strings.TrimSpace(tok))
		if err == nil && protocol.IsEncounterToken(tok) {
			decision = tok
		}
	}

	switch decision {
	case protocol.EncounterPayFine:
		return payFine(st, fine)

	case protocol.EncounterLoseInventory:
		drug, ok := randomHeldDrug(st, rng)
		if !ok {
			// Nothing to forfeit: the fine applies instead, never a free pass.
			return "No inventory to lose. " + payFine(st, fine)
		}
		lost := st.Inventory[drug]
		st.Inventory[drug] = 0
		return fmt.Sprintf("You lost %d units of %s.", lost, drug)

	case protocol.EncounterBribe:
		if st.Cash >= tune.BribeCost {
			st.Cash -= tune.BribeCost
			return fmt.Sprintf("You successfully bribed the official for $%d.", tune.BribeCost)
		}
		st.JailTime = 1
		return "Bribe attempt failed due to insufficient funds. You've been sent to jail for 1 day."

	default: // go_to_jail, and the fail-safe for everything else
		days := tune.JailMinDays + rng.Intn(tune.JailMaxDays-tune.JailMinDays+1)
		st.JailTime = days
		return fmt.Sprintf("You've been sent to jail for %d days.", days)
	}
}

func payFine(st *State, fine int) string {
	st.Cash -= fine
	if st.Cash < 0 {
		st.Cash = 0
	}
	return fmt.Sprintf("You paid a fine of $%d.", fine)
}

// randomHeldDrug picks uniformly among commodities with a positive quantity.
// Candidates are sorted so the draw depends only on the rng state.
func randomHeldDrug(st *State, rng *rand.Rand) (string, bool) {
	var held []string
	for d, qty := range st.Inventory {
		if qty > 0 {
			held = append(held, d)
		}
	}
	if len(held) == 0 {
		return "", false
	}
	sort.Strings(held)
	return held[rng.Intn(len(held))], true
}
