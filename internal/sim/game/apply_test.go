package game

import (
	"math/rand"
	"testing"

	"drugwars.ai/internal/protocol"
	"drugwars.ai/internal/sim/market"
	"drugwars.ai/internal/sim/tuning"
)

// freshBoard returns a board still at base prices (weed 50 etc).
func freshBoard() *market.Board {
	return market.NewBoard(rand.New(rand.NewSource(1)), 10, 10)
}

func testState(cash int) *State {
	return NewState(rand.New(rand.NewSource(1)), cash)
}

func TestApply_Buy(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "buy", DrugType: "weed", Amount: 10})

	if st.Cash != 500 {
		t.Fatalf("cash = %d, want 500", st.Cash)
	}
	if st.Inventory["weed"] != 10 {
		t.Fatalf("inventory[weed] = %d, want 10", st.Inventory["weed"])
	}
	if out.Message != "Bought 10 units of weed for $500." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_BuyInsufficientFundsNoMutation(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(100)
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "buy", DrugType: "heroin", Amount: 5})

	if st.Cash != 100 || st.Inventory["heroin"] != 0 {
		t.Fatalf("state mutated on refused buy: cash=%d inv=%d", st.Cash, st.Inventory["heroin"])
	}
	if out.Message != "Insufficient funds to complete the purchase." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_SellInsufficientInventoryNoMutation(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(100)
	st.Inventory["weed"] = 3
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "sell", DrugType: "weed", Amount: 5})

	if st.Cash != 100 || st.Inventory["weed"] != 3 {
		t.Fatalf("state mutated on refused sell: cash=%d inv=%d", st.Cash, st.Inventory["weed"])
	}
	if out.Message != "Not enough weed to sell." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_BuySellNeverGoesNegative(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	board := freshBoard()
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 2000; i++ {
		drug := protocol.Drugs[rng.Intn(len(protocol.Drugs))]
		amount := rng.Intn(40) + 1
		kind := protocol.KindBuy
		if rng.Intn(2) == 0 {
			kind = protocol.KindSell
		}
		Apply(st, board, tune, protocol.Action{Kind: kind, DrugType: drug, Amount: amount})
		if st.Cash < 0 {
			t.Fatalf("cash went negative: %d", st.Cash)
		}
		for d, q := range st.Inventory {
			if q < 0 {
				t.Fatalf("inventory[%s] went negative: %d", d, q)
			}
		}
		board.Update()
	}
}

func TestApply_TravelChargesFlatFeeAndResetsCounter(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	st.Location = "Bronx"
	st.TurnsInLocation = 7

	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "travel", Location: "Queens"})
	if st.Cash != 900 {
		t.Fatalf("cash = %d, want 900", st.Cash)
	}
	if st.Location != "Queens" {
		t.Fatalf("location = %s, want Queens", st.Location)
	}
	if st.TurnsInLocation != 0 {
		t.Fatalf("turns in location = %d, want 0", st.TurnsInLocation)
	}
	if out.Message != "Traveled to Queens for $100." {
		t.Fatalf("message = %q", out.Message)
	}
}

// A travel attempt resets the in-location counter even when the destination
// is the current location and nothing is charged. Deliberate behavior, kept
// from the original rules.
func TestApply_TravelSameLocationFreeButResetsCounter(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	st.Location = "Bronx"
	st.TurnsInLocation = 5

	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "travel", Location: "Bronx"})
	if st.Cash != 1000 {
		t.Fatalf("same-location travel charged a fee: cash = %d", st.Cash)
	}
	if st.Location != "Bronx" {
		t.Fatalf("location changed: %s", st.Location)
	}
	if st.TurnsInLocation != 0 {
		t.Fatalf("turns in location = %d, want 0 (counter resets on any travel attempt)", st.TurnsInLocation)
	}
	if out.Message != "You are already in that location." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_TravelInsufficientFunds(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(50)
	st.Location = "Bronx"

	Apply(st, freshBoard(), tune, protocol.Action{Kind: "travel", Location: "Queens"})
	if st.Cash != 50 || st.Location != "Bronx" {
		t.Fatalf("refused travel mutated state: cash=%d location=%s", st.Cash, st.Location)
	}
}

func TestApply_LoanAndSecondLoanRejected(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(0)
	st.Day = 10

	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "loan", Amount: 1000})
	if st.Cash != 1000 || st.Debt != 1000 {
		t.Fatalf("loan not applied: cash=%d debt=%d", st.Cash, st.Debt)
	}
	if st.LoanDueDate != 40 {
		t.Fatalf("due date = %d, want 40", st.LoanDueDate)
	}
	if out.Message != "Borrowed $1000. Repay $1100 by day 40." {
		t.Fatalf("message = %q", out.Message)
	}

	// One loan at a time, regardless of requested amount.
	out = Apply(st, freshBoard(), tune, protocol.Action{Kind: "loan", Amount: 1})
	if st.Debt != 1000 || st.Cash != 1000 {
		t.Fatalf("second loan mutated state: cash=%d debt=%d", st.Cash, st.Debt)
	}
	if out.Message != "You already have an outstanding loan. Repay it first." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_LoanOverMaximumRejected(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(0)
	Apply(st, freshBoard(), tune, protocol.Action{Kind: "loan", Amount: 5001})
	if st.Debt != 0 || st.Cash != 0 {
		t.Fatalf("oversized loan mutated state: cash=%d debt=%d", st.Cash, st.Debt)
	}
}

func TestApply_RepayCappedByCashAndDue(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(500)
	st.Debt = 1000
	st.LoanDueDate = 31

	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "repay", Amount: 2000})
	// Total due 1100; repayment = min(2000, 1100, 500) = 500.
	if st.Cash != 0 {
		t.Fatalf("cash = %d, want 0", st.Cash)
	}
	if st.Debt != 500 {
		t.Fatalf("debt = %d, want 500", st.Debt)
	}
	if st.LoanDueDate == 0 {
		t.Fatal("due date cleared while debt remains")
	}
	if out.Message != "Repaid $500. Remaining debt: $500." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_RepayDrivesDebtToExactlyZero(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(100000)
	st.Debt = 1000
	st.LoanDueDate = 31

	for i := 0; i < 10 && st.Debt > 0; i++ {
		Apply(st, freshBoard(), tune, protocol.Action{Kind: "repay", Amount: 400})
		if st.Debt < 0 {
			t.Fatalf("debt went negative: %d", st.Debt)
		}
	}
	if st.Debt != 0 {
		t.Fatalf("debt = %d, want 0", st.Debt)
	}
	if st.LoanDueDate != 0 {
		t.Fatalf("due date = %d, want cleared", st.LoanDueDate)
	}
}

func TestApply_RepayWithNoDebtIsHarmless(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(800)
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "repay", Amount: 500})
	if st.Cash != 800 || st.Debt != 0 {
		t.Fatalf("repay with no debt mutated state: cash=%d debt=%d", st.Cash, st.Debt)
	}
	if out.Message != "Loan fully repaid. You paid $0." {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestApply_BankTransfersConserveTotal(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)

	Apply(st, freshBoard(), tune, protocol.Action{Kind: "bank", SubAction: "deposit", Amount: 600})
	if st.Cash != 400 || st.Bank != 600 {
		t.Fatalf("after deposit: cash=%d bank=%d", st.Cash, st.Bank)
	}
	Apply(st, freshBoard(), tune, protocol.Action{Kind: "bank", SubAction: "withdraw", Amount: 150})
	if st.Cash != 550 || st.Bank != 450 {
		t.Fatalf("after withdraw: cash=%d bank=%d", st.Cash, st.Bank)
	}
	if st.Cash+st.Bank != 1000 {
		t.Fatalf("cash+bank = %d, want 1000", st.Cash+st.Bank)
	}

	// Over-limit transfers are refused outright.
	Apply(st, freshBoard(), tune, protocol.Action{Kind: "bank", SubAction: "deposit", Amount: 551})
	Apply(st, freshBoard(), tune, protocol.Action{Kind: "bank", SubAction: "withdraw", Amount: 451})
	if st.Cash != 550 || st.Bank != 450 {
		t.Fatalf("refused transfers mutated state: cash=%d bank=%d", st.Cash, st.Bank)
	}
}

func TestApply_JailSuppressesAnyAction(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	st.JailTime = 2

	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "buy", DrugType: "weed", Amount: 1})
	if st.JailTime != 1 {
		t.Fatalf("jail time = %d, want 1", st.JailTime)
	}
	if st.Cash != 1000 || st.Inventory["weed"] != 0 {
		t.Fatalf("jailed action mutated state: cash=%d inv=%d", st.Cash, st.Inventory["weed"])
	}
	if out.Message != "You are in jail for 2 more days. You cannot perform actions." {
		t.Fatalf("message = %q", out.Message)
	}
	if out.Quit {
		t.Fatal("jailed turn reported quit")
	}
}

func TestApply_QuitSignalsWithoutMutation(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "quit"})
	if !out.Quit {
		t.Fatal("quit did not signal")
	}
	if st.Cash != 1000 || st.Day != 1 {
		t.Fatalf("quit mutated state: cash=%d day=%d", st.Cash, st.Day)
	}
}

func TestApply_UnknownKindFallback(t *testing.T) {
	tune := tuning.Defaults()
	st := testState(1000)
	out := Apply(st, freshBoard(), tune, protocol.Action{Kind: "dance"})
	if out.Message != "Unknown action." {
		t.Fatalf("message = %q", out.Message)
	}
	if st.Cash != 1000 {
		t.Fatalf("unknown action mutated state: cash=%d", st.Cash)
	}
}
