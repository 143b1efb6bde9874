package agent

import (
	"context"
	"strings"

	"drugwars.ai/internal/sim/game"
)

// ChooseEncounter asks the agent to pick one option token from a
// law-enforcement encounter. A single round-trip: the resolver's fail-safe
// jail default covers transport failures and unrecognized tokens, so there is
// nothing to retry here.
func (c *Client) ChooseEncounter(ctx context.Context, view game.TurnView, options map[string]string) (string, error) {
	content, err := c.chat(ctx, encounterSystemPrompt, buildEncounterContext(view, options), false)
	if err != nil {
		c.log.Printf("encounter decision failed, defaulting to jail: %v", err)
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(content)), nil
}
