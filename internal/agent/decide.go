package agent

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"drugwars.ai/internal/protocol"
	"drugwars.ai/internal/sim/game"
	"drugwars.ai/internal/telemetry"
)

// ErrNoDecision is returned once every attempt has been exhausted. The day
// loop treats it as a no-op day.
var ErrNoDecision = errors.New("agent: no valid action obtained")

// Decide runs the bounded retry state machine: up to AgentMaxAttempts
// sequential round-trips separated by a fixed delay. Schema violations,
// missing companion fields, failed affordability prechecks, and transport
// failures all consume one attempt; the next attempt carries the rejection
// reason as a reconsideration hint. Nothing is mutated on any path.
func (c *Client) Decide(ctx context.Context, view game.TurnView) (protocol.Action, error) {
	tracer := telemetry.Tracer("agent")
	ctx, span := tracer.Start(ctx, "agent.decide")
	defer span.End()

	delay := time.Duration(c.tune.AgentRetryDelayMs) * time.Millisecond
	var lastReason string

	for attempt := 1; attempt <= c.tune.AgentMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return protocol.Action{}, ctx.Err()
			case <-time.After(delay):
			}
			c.log.Printf("retrying decision (%d/%d)", attempt, c.tune.AgentMaxAttempts)
		}

		content, err := c.chat(ctx, decisionSystemPrompt, buildDecisionContext(view, lastReason), true)
		if err != nil {
			if ctx.Err() != nil {
				return protocol.Action{}, ctx.Err()
			}
			lastReason = "the agent endpoint could not be reached; the previous action was lost"
			c.log.Printf("%s: %v", protocol.ErrTransport, err)
			continue
		}

		act, rej := protocol.ParseAction([]byte(content))
		if rej != nil {
			lastReason = rej.Reason
			c.log.Printf("rejected action: %v", rej)
			continue
		}

		if rej := game.PrecheckAffordability(view, act, c.tune.TravelCost); rej != nil {
			lastReason = rej.Reason
			c.log.Printf("rejected action: %v", rej)
			continue
		}

		span.SetAttributes(
			attribute.String("agent.action", act.Kind),
			attribute.Int("agent.attempts", attempt),
		)
		return act, nil
	}

	span.SetAttributes(attribute.Bool("agent.exhausted", true))
	return protocol.Action{}, ErrNoDecision
}
