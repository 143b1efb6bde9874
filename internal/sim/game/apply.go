package game

import (
	"fmt"

	"drugwars.ai/internal/protocol"
	"drugwars.ai/internal/sim/market"
	"drugwars.ai/internal/sim/tuning"
)

// Outcome is the result of applying one action.
type Outcome struct {
	Message string
	Quit    bool
}

// Apply is the state transition function: it mutates st per the action's kind
// and returns a human-readable result. Guards reject (no mutation) rather
// than clamp; only the encounter paths clamp cash at zero.
//
// If st.JailTime > 0 the action is suppressed no matter what was requested:
// jail time decrements by one and the jail message is returned. The day loop
// skips the decision request while jailed, but an encounter can set JailTime
// immediately before this call, so the guard lives here too.
func Apply(st *State, board *market.Board, tune tuning.Tuning, act protocol.Action) Outcome {
	if st.JailTime > 0 {
		msg := fmt.Sprintf("You are in jail for %d more days. You cannot perform actions.", st.JailTime)
		st.JailTime--
		return Outcome{Message: msg}
	}

	switch act.Kind {
	case protocol.KindBuy:
		return applyBuy(st, board, act)
	case protocol.KindSell:
		return applySell(st, board, act)
	case protocol.KindTravel:
		return applyTravel(st, tune, act)
	case protocol.KindLoan:
		return applyLoan(st, tune, act)
	case protocol.KindRepay:
		return applyRepay(st, tune, act)
	case protocol.KindBank:
		return applyBank(st, act)
	case protocol.KindQuit:
		return Outcome{Message: "You have chosen to quit the game.", Quit: true}
	default:
		// The validator refuses unknown kinds before they get here.
		return Outcome{Message: "Unknown action."}
	}
}

func applyBuy(st *State, board *market.Board, act protocol.Action) Outcome {
	if !protocol.IsDrug(act.DrugType) {
		return Outcome{Message: "Invalid or missing drug type."}
	}
	if act.Amount < 1 {
		return Outcome{Message: "Invalid amount."}
	}
	cost := board.Price(act.DrugType) * act.Amount
	if st.Cash < cost {
		return Outcome{Message: "Insufficient funds to complete the purchase."}
	}
	st.Cash -= cost
	st.Inventory[act.DrugType] += act.Amount
	return Outcome{Message: fmt.Sprintf("Bought %d units of %s for $%d.", act.Amount, act.DrugType, cost)}
}

func applySell(st *State, board *market.Board, act protocol.Action) Outcome {
	if !protocol.IsDrug(act.DrugType) {
		return Outcome{Message: "Invalid or missing drug type."}
	}
	if act.Amount < 1 {
		return Outcome{Message: "Invalid amount."}
	}
	if st.Inventory[act.DrugType] < act.Amount {
		return Outcome{Message: fmt.Sprintf("Not enough %s to sell.", act.DrugType)}
	}
	revenue := board.Price(act.DrugType) * act.Amount
	st.Cash += revenue
	st.Inventory[act.DrugType] -= act.Amount
	return Outcome{Message: fmt.Sprintf("Sold %d units of %s for $%d.", act.Amount, act.DrugType, revenue)}
}

func applyTravel(st *State, tune tuning.Tuning, act protocol.Action) Outcome {
	// The in-location counter resets on any travel attempt, before the
	// destination is even checked. Intentionally preserved from the original
	// rules; see the travel tests.
	st.TurnsInLocation = 0

	if !protocol.IsLocation(act.Location) {
		return Outcome{Message: "Invalid or missing location."}
	}
	if act.Location == st.Location {
		return Outcome{Message: "You are already in that location."}
	}
	if st.Cash < tune.TravelCost {
		return Outcome{Message: "Insufficient funds to travel."}
	}
	st.Cash -= tune.TravelCost
	st.Location = act.Location
	return Outcome{Message: fmt.Sprintf("Traveled to %s for $%d.", act.Location, tune.TravelCost)}
}

func applyLoan(st *State, tune tuning.Tuning, act protocol.Action) Outcome {
	if act.Amount < 1 {
		return Outcome{Message: "Invalid loan amount."}
	}
	if act.Amount > tune.MaxLoanAmount {
		return Outcome{Message: fmt.Sprintf("Loan amount exceeds the maximum of $%d.", tune.MaxLoanAmount)}
	}
	if st.Debt > 0 {
		return Outcome{Message: "You already have an outstanding loan. Repay it first."}
	}
	st.Cash += act.Amount
	st.Debt = act.Amount
	st.LoanDueDate = st.Day + tune.LoanDurationDays
	due := act.Amount + int(float64(act.Amount)*tune.LoanInterestRate)
	return Outcome{Message: fmt.Sprintf("Borrowed $%d. Repay $%d by day %d.", act.Amount, due, st.LoanDueDate)}
}

func applyRepay(st *State, tune tuning.Tuning, act protocol.Action) Outcome {
	if act.Amount < 1 {
		return Outcome{Message: "Invalid repayment amount."}
	}
	totalDue := st.Debt + int(float64(st.Debt)*tune.LoanInterestRate)
	repayment := min3(act.Amount, totalDue, st.Cash)
	st.Debt -= repayment
	st.Cash -= repayment
	if st.Debt <= 0 {
		st.Debt = 0
		st.LoanDueDate = 0
		return Outcome{Message: fmt.Sprintf("Loan fully repaid. You paid $%d.", repayment)}
	}
	return Outcome{Message: fmt.Sprintf("Repaid $%d. Remaining debt: $%d.", repayment, st.Debt)}
}

func applyBank(st *State, act protocol.Action) Outcome {
	switch act.SubAction {
	case protocol.BankDeposit:
		if act.Amount < 1 || act.Amount > st.Cash {
			return Outcome{Message: "Invalid deposit amount."}
		}
		st.Cash -= act.Amount
		st.Bank += act.Amount
		return Outcome{Message: fmt.Sprintf("Deposited $%d to the bank.", act.Amount)}
	case protocol.BankWithdraw:
		if act.Amount < 1 || act.Amount > st.Bank {
			return Outcome{Message: "Invalid withdrawal amount."}
		}
		st.Bank -= act.Amount
		st.Cash += act.Amount
		return Outcome{Message: fmt.Sprintf("Withdrew $%d from the bank.", act.Amount)}
	default:
		return Outcome{Message: "Invalid or missing sub_action for bank."}
	}
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
