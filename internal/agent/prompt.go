package agent

import (
	"fmt"
	"sort"
	"strings"

	"drugwars.ai/internal/sim/game"
)

const decisionSystemPrompt = `You are an AI player in a Drug Wars game. Your goal is to maximize profits and avoid legal trouble. Make strategic decisions about buying and selling drugs, managing finances, and traveling between locations. Analyze the current game state, drug prices, and recent events to determine the best action. Respond only with a single JSON object that strictly adheres to the following schema:

{
    "action": "buy" | "sell" | "travel" | "loan" | "repay" | "bank" | "quit",
    "drug_type": "cocaine" | "heroin" | "meth" | "weed" | "ecstasy",  // Required for buy/sell actions
    "amount": integer >= 1,  // Required for buy/sell/loan/repay actions
    "location": "Bronx" | "Brooklyn" | "Manhattan" | "Queens" | "Staten Island",  // Required for travel action
    "sub_action": "deposit" | "withdraw"  // Required for bank action
}

Include only the necessary fields based on your chosen action. Do not include any explanation or additional text outside of the JSON object.`

const encounterSystemPrompt = `You are an AI player in a Drug Wars game facing a law enforcement encounter. Make a strategic decision based on your current game state and the options presented. Respond only with one of the following options: pay_fine, lose_inventory, go_to_jail, or bribe.`

// buildDecisionContext renders the user message for a decision request:
// recent-turn window, ledger summary, prices, the day's event, and (on retry
// attempts) the reconsideration hint carrying the last rejection reason.
func buildDecisionContext(view game.TurnView, reconsiderReason string) string {
	var b strings.Builder

	if len(view.History) > 0 {
		b.WriteString("Recalled recent turns:\n")
		for _, turn := range view.History {
			fmt.Fprintf(&b, "Day %d:\n", turn.Day)
			fmt.Fprintf(&b, "  Action: %s\n", describeAction(turn))
			fmt.Fprintf(&b, "  Result: %s\n", turn.Result)
			fmt.Fprintf(&b, "  State: cash $%d, bank $%d, debt $%d, location %s, inventory %s\n",
				turn.State.Cash, turn.State.Bank, turn.State.Debt, turn.State.Location, formatInventory(turn.State.Inventory))
			fmt.Fprintf(&b, "  Prices: %s\n", formatPrices(turn.Prices))
			if turn.Event != "" {
				fmt.Fprintf(&b, "  Event: %s\n", turn.Event)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current game state: Day: %d, Cash: $%d, Debt: $%d, Bank: $%d, Location: %s, Inventory: %s\n",
		view.Day, view.Cash, view.Debt, view.Bank, view.Location, formatInventory(view.Inventory))
	if view.Debt > 0 {
		fmt.Fprintf(&b, "Loan due: day %d\n", view.LoanDueDate)
	}
	fmt.Fprintf(&b, "Current drug prices: %s\n", formatPrices(view.Prices))
	if view.LastEvent != "" {
		fmt.Fprintf(&b, "Recent event: %s\n", view.LastEvent)
	}

	if reconsiderReason != "" {
		b.WriteString("\nYour previous proposal was infeasible and was rejected: ")
		b.WriteString(reconsiderReason)
		b.WriteString("\nReconsider your action based on your current financial situation. You may want to sell some inventory, take a loan, or choose a less expensive action.\n")
	}

	b.WriteString("\nChoose your next action as a single JSON object following the schema.")
	return b.String()
}

// buildEncounterContext renders the user message for the encounter choice.
func buildEncounterContext(view game.TurnView, options map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current game state: Day: %d, Cash: $%d, Debt: $%d, Bank: $%d, Location: %s, Inventory: %s\n\n",
		view.Day, view.Cash, view.Debt, view.Bank, view.Location, formatInventory(view.Inventory))

	b.WriteString("Law enforcement encounter options:\n")
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, options[k])
	}
	b.WriteString("\nChoose one option based on your current situation and strategy.")
	return b.String()
}

func describeAction(turn game.TurnRecord) string {
	if turn.Action.IsZero() {
		return "none"
	}
	return turn.Action.Kind
}

// formatInventory lists held commodities as "drug: qty", or "Empty".
func formatInventory(inv map[string]int) string {
	var held []string
	for d, qty := range inv {
		if qty > 0 {
			held = append(held, fmt.Sprintf("%s: %d", d, qty))
		}
	}
	if len(held) == 0 {
		return "Empty"
	}
	sort.Strings(held)
	return strings.Join(held, ", ")
}

func formatPrices(prices map[string]int) string {
	keys := make([]string, 0, len(prices))
	for d := range prices {
		keys = append(keys, d)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, d := range keys {
		parts = append(parts, fmt.Sprintf("%s: $%d", d, prices[d]))
	}
	return strings.Join(parts, ", ")
}
