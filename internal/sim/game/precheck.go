package game

import (
	"drugwars.ai/internal/protocol"
)

// TurnView is the read-only context handed to the decision agent: ledger
// summary, current prices, the day's event text, and the recent-turn window.
type TurnView struct {
	Day         int
	Cash        int
	Bank        int
	Debt        int
	LoanDueDate int
	Location    string
	JailTime    int
	Inventory   map[string]int
	Prices      map[string]int
	LastEvent   string
	History     []TurnRecord
}

// PrecheckAffordability is the heuristic filter run before an accepted action
// reaches Apply: buy and travel proposals that cannot be paid for at request
// time are rejected so the agent can reconsider. Apply keeps its own
// authoritative guards; this only drives the retry hint.
func PrecheckAffordability(view TurnView, act protocol.Action, travelCost int) *protocol.Rejection {
	switch act.Kind {
	case protocol.KindBuy:
		cost := view.Prices[act.DrugType] * act.Amount
		if cost > view.Cash {
			return protocol.Reject(protocol.ErrInfeasible,
				"buying %d %s costs $%d but you only have $%d", act.Amount, act.DrugType, cost, view.Cash)
		}
	case protocol.KindTravel:
		if travelCost > view.Cash {
			return protocol.Reject(protocol.ErrInfeasible,
				"travel costs $%d but you only have $%d", travelCost, view.Cash)
		}
	}
	return nil
}
