// Package game implements the per-day economic state machine: the ledger, the
// action transition function, the law-enforcement encounter, and the day loop
// that ties them to the external decision agent.
package game

import (
	"math/rand"

	"drugwars.ai/internal/protocol"
)

// State is the authoritative mutable record for the single player. It is
// owned by the day loop and lent to each component call; nothing else holds a
// reference across turns.
type State struct {
	Day  int
	Cash int
	Bank int

	// Debt > 0 iff a loan is outstanding; LoanDueDate is 0 otherwise.
	Debt        int
	LoanDueDate int

	Inventory map[string]int
	Location  string

	JailTime        int
	TurnsInLocation int

	// History keeps the most recent turns, oldest first.
	History []TurnRecord
}

// NewState builds the day-1 state: fixed starting cash, empty inventory,
// random starting location.
func NewState(rng *rand.Rand, startingCash int) *State {
	inv := make(map[string]int, len(protocol.Drugs))
	for _, d := range protocol.Drugs {
		inv[d] = 0
	}
	return &State{
		Day:       1,
		Cash:      startingCash,
		Inventory: inv,
		Location:  protocol.Locations[rng.Intn(len(protocol.Locations))],
	}
}

// TotalAssets is the terminal scoring metric: cash + bank + inventory valued
// at the given prices, minus outstanding debt. Computable at any day.
func (s *State) TotalAssets(prices map[string]int) int {
	total := s.Cash + s.Bank - s.Debt
	for d, qty := range s.Inventory {
		total += qty * prices[d]
	}
	return total
}

// Snapshot captures the ledger fields a history record needs, decoupled from
// later mutation.
func (s *State) Snapshot() StateSnapshot {
	inv := make(map[string]int, len(s.Inventory))
	for d, q := range s.Inventory {
		inv[d] = q
	}
	return StateSnapshot{
		Cash:      s.Cash,
		Bank:      s.Bank,
		Debt:      s.Debt,
		Location:  s.Location,
		Inventory: inv,
	}
}

// PushHistory appends rec and evicts the oldest record beyond limit.
func (s *State) PushHistory(rec TurnRecord, limit int) {
	s.History = append(s.History, rec)
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// StateSnapshot is the structured per-turn ledger capture kept in history
// records. Equality does not depend on any text formatting.
type StateSnapshot struct {
	Cash      int            `json:"cash"`
	Bank      int            `json:"bank"`
	Debt      int            `json:"debt"`
	Location  string         `json:"location"`
	Inventory map[string]int `json:"inventory"`
}

// TurnRecord is one completed turn: what was attempted, what happened, and
// the world as it stood.
type TurnRecord struct {
	Day      int             `json:"day"`
	Action   protocol.Action `json:"action"`
	Result   string          `json:"result"`
	State    StateSnapshot   `json:"state"`
	Prices   map[string]int  `json:"prices"`
	Event    string          `json:"event,omitempty"`
}
