package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"drugwars.ai/internal/sim/tuning"
)

type scriptedChooser struct {
	token string
	err   error

	called  bool
	options map[string]string
}

func (c *scriptedChooser) ChooseEncounter(ctx context.Context, view TurnView, options map[string]string) (string, error) {
	c.called = true
	c.options = options
	return c.token, c.err
}

// encounterTune pins the random ranges so outcomes are deterministic.
func encounterTune() tuning.Tuning {
	tune := tuning.Defaults()
	tune.FineMin = 300
	tune.FineMax = 300
	tune.JailMinDays = 2
	tune.JailMaxDays = 2
	return tune
}

func TestCheckEncounter_SafeBelowThreshold(t *testing.T) {
	tune := encounterTune()
	tune.EncounterPercent = 100
	st := testState(1000)
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "pay_fine"}

	for turn := 1; turn <= tune.MaxSafeTurns; turn++ {
		if msg := CheckEncounter(context.Background(), st, rng, tune, chooser, TurnView{}); msg != "" {
			t.Fatalf("turn %d: encounter before safety threshold: %q", turn, msg)
		}
	}
	if chooser.called {
		t.Fatal("chooser consulted before safety threshold")
	}
	if msg := CheckEncounter(context.Background(), st, rng, tune, chooser, TurnView{}); msg == "" {
		t.Fatal("100% encounter rate past threshold produced no encounter")
	}
}

func TestCheckEncounter_ZeroPercentNeverTriggers(t *testing.T) {
	tune := encounterTune()
	tune.EncounterPercent = 0
	st := testState(1000)
	rng := rand.New(rand.NewSource(1))

	for turn := 0; turn < 100; turn++ {
		if msg := CheckEncounter(context.Background(), st, rng, tune, nil, TurnView{}); msg != "" {
			t.Fatalf("encounter at 0%%: %q", msg)
		}
	}
}

func TestResolveEncounter_PayFineClampsAtZero(t *testing.T) {
	tune := encounterTune()
	st := testState(100) // fine is 300
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "pay_fine"}

	msg := resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.Cash != 0 {
		t.Fatalf("cash = %d, want 0 (clamped)", st.Cash)
	}
	if msg != "You paid a fine of $300." {
		t.Fatalf("message = %q", msg)
	}
}

func TestResolveEncounter_OptionsPresented(t *testing.T) {
	tune := encounterTune()
	st := testState(1000)
	chooser := &scriptedChooser{token: "pay_fine"}

	resolveEncounter(context.Background(), st, rand.New(rand.NewSource(1)), tune, chooser, TurnView{})
	if len(chooser.options) != 4 {
		t.Fatalf("presented %d options, want 4", len(chooser.options))
	}
	for _, key := range []string{"pay_fine", "lose_inventory", "go_to_jail", "bribe"} {
		if _, ok := chooser.options[key]; !ok {
			t.Fatalf("option %s missing from %v", key, chooser.options)
		}
	}
}

func TestResolveEncounter_LoseInventoryZerosOneDrug(t *testing.T) {
	tune := encounterTune()
	st := testState(1000)
	st.Inventory["weed"] = 12
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "lose_inventory"}

	msg := resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.Inventory["weed"] != 0 {
		t.Fatalf("inventory[weed] = %d, want 0", st.Inventory["weed"])
	}
	if st.Cash != 1000 {
		t.Fatalf("cash changed on forfeit: %d", st.Cash)
	}
	if msg != "You lost 12 units of weed." {
		t.Fatalf("message = %q", msg)
	}
}

func TestResolveEncounter_LoseInventoryEmptyFallsBackToFine(t *testing.T) {
	tune := encounterTune()
	st := testState(1000)
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "lose_inventory"}

	msg := resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.Cash != 700 {
		t.Fatalf("cash = %d, want 700 (fine applied instead)", st.Cash)
	}
	if !strings.Contains(msg, "No inventory to lose") {
		t.Fatalf("message = %q", msg)
	}
}

func TestResolveEncounter_GoToJailOverwrites(t *testing.T) {
	tune := encounterTune()
	st := testState(1000)
	st.JailTime = 5
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "go_to_jail"}

	resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.JailTime != 2 {
		t.Fatalf("jail time = %d, want a fresh 2-day draw (overwrite, not accumulate)", st.JailTime)
	}
}

func TestResolveEncounter_BribePaidWhenAffordable(t *testing.T) {
	tune := encounterTune()
	st := testState(600)
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "bribe"}

	msg := resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.Cash != 100 {
		t.Fatalf("cash = %d, want 100", st.Cash)
	}
	if st.JailTime != 0 {
		t.Fatalf("jail time = %d, want 0", st.JailTime)
	}
	if msg != "You successfully bribed the official for $500." {
		t.Fatalf("message = %q", msg)
	}
}

func TestResolveEncounter_BribeInsufficientFundsJailsOneDay(t *testing.T) {
	tune := encounterTune()
	st := testState(400)
	rng := rand.New(rand.NewSource(1))
	chooser := &scriptedChooser{token: "bribe"}

	resolveEncounter(context.Background(), st, rng, tune, chooser, TurnView{})
	if st.Cash != 400 {
		t.Fatalf("failed bribe debited cash: %d", st.Cash)
	}
	if st.JailTime != 1 {
		t.Fatalf("jail time = %d, want 1", st.JailTime)
	}
}

func TestResolveEncounter_FailSafeDefaultsToJail(t *testing.T) {
	tune := encounterTune()
	cases := []struct {
		name    string
		chooser *scriptedChooser
	}{
		{"unrecognized token", &scriptedChooser{token: "run away"}},
		{"chooser error", &scriptedChooser{err: errors.New("endpoint down")}},
		{"empty response", &scriptedChooser{token: ""}},
	}
	for _, tc := range cases {
		st := testState(1000)
		resolveEncounter(context.Background(), st, rand.New(rand.NewSource(1)), tune, tc.chooser, TurnView{})
		if st.JailTime != 2 {
			t.Fatalf("%s: jail time = %d, want 2 (fail-safe default)", tc.name, st.JailTime)
		}
		if st.Cash != 1000 {
			t.Fatalf("%s: cash changed: %d", tc.name, st.Cash)
		}
	}
}

func TestResolveEncounter_TokenNormalization(t *testing.T) {
	tune := encounterTune()
	st := testState(1000)
	chooser := &scriptedChooser{token: "  PAY_FINE \n"}

	msg := resolveEncounter(context.Background(), st, rand.New(rand.NewSource(1)), tune, chooser, TurnView{})
	if msg != "You paid a fine of $300." {
		t.Fatalf("case-insensitive token not honored: %q", msg)
	}
}
