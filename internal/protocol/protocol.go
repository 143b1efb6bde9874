package protocol

// Action kinds the agent may request.
const (
	KindBuy    = "buy"
	KindSell   = "sell"
	KindTravel = "travel"
	KindLoan   = "loan"
	KindRepay  = "repay"
	KindBank   = "bank"
	KindQuit   = "quit"
)

// Bank sub-actions.
const (
	BankDeposit  = "deposit"
	BankWithdraw = "withdraw"
)

// Encounter decision tokens.
const (
	EncounterPayFine       = "pay_fine"
	EncounterLoseInventory = "lose_inventory"
	EncounterGoToJail      = "go_to_jail"
	EncounterBribe         = "bribe"
)

// Drugs is the fixed commodity set. Keys never change for the lifetime of a game.
var Drugs = []string{"cocaine", "heroin", "meth", "weed", "ecstasy"}

// Locations is the fixed zone set.
var Locations = []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}

// Action is a structured decision obtained from the agent. Exactly one is
// applied per turn; companion fields are populated per kind.
type Action struct {
	Kind      string `json:"action"`
	DrugType  string `json:"drug_type,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	Location  string `json:"location,omitempty"`
	SubAction string `json:"sub_action,omitempty"`
}

// IsZero reports whether no action was populated (e.g. a suppressed jail turn).
func (a Action) IsZero() bool {
	return a.Kind == ""
}

func IsDrug(name string) bool {
	for _, d := range Drugs {
		if d == name {
			return true
		}
	}
	return false
}

func IsLocation(name string) bool {
	for _, l := range Locations {
		if l == name {
			return true
		}
	}
	return false
}

// IsEncounterToken reports whether tok is one of the four encounter choices.
// Callers are expected to have trimmed and lowercased tok already.
func IsEncounterToken(tok string) bool {
	switch tok {
	case EncounterPayFine, EncounterLoseInventory, EncounterGoToJail, EncounterBribe:
		return true
	}
	return false
}
