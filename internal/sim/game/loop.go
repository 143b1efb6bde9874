package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"go.opentelemetry.io/otel/attribute"

	"drugwars.ai/internal/protocol"
	"drugwars.ai/internal/sim/market"
	"drugwars.ai/internal/sim/tuning"
	"drugwars.ai/internal/telemetry"
)

// Decider obtains one structured action from the external agent. Any error is
// treated as "no valid action obtained" and the day passes with no mutation.
type Decider interface {
	Decide(ctx context.Context, view TurnView) (protocol.Action, error)
}

// TurnSink receives each completed turn record (journal, index, observers).
// Sink failures never stop the run.
type TurnSink interface {
	WriteTurn(rec TurnRecord) error
}

// Report summarizes a finished run.
type Report struct {
	DaysSurvived int    `json:"days_survived"`
	FinalCash    int    `json:"final_cash"`
	FinalBank    int    `json:"final_bank"`
	FinalDebt    int    `json:"final_debt"`
	TotalAssets  int    `json:"total_assets"`
	Outcome      string `json:"outcome"` // "quit", "day_limit", or "interrupted"
}

// Loop owns the game state and drives one full run, one day at a time.
type Loop struct {
	tune    tuning.Tuning
	st      *State
	board   *market.Board
	rng     *rand.Rand
	decider Decider
	chooser EncounterChooser
	log     *log.Logger
	sinks   []TurnSink
}

func NewLoop(tune tuning.Tuning, rng *rand.Rand, decider Decider, chooser EncounterChooser, logger *log.Logger, sinks ...TurnSink) *Loop {
	return &Loop{
		tune:    tune,
		st:      NewState(rng, tune.StartingCash),
		board:   market.NewBoard(rng, tune.PriceFloor, tune.PriceJitter),
		rng:     rng,
		decider: decider,
		chooser: chooser,
		log:     logger,
		sinks:   sinks,
	}
}

// State exposes the ledger for tests and final reporting. The loop remains
// the sole mutator.
func (l *Loop) State() *State { return l.st }

// Run plays days until the day limit, a quit action, or ctx cancellation.
// Every day advances the counter exactly once, including jailed days and days
// where no valid action could be obtained.
func (l *Loop) Run(ctx context.Context) (Report, error) {
	tracer := telemetry.Tracer("game")

	for l.st.Day <= l.tune.MaxDays {
		if err := ctx.Err(); err != nil {
			return l.report("interrupted"), err
		}

		day := l.st.Day
		dayCtx, span := tracer.Start(ctx, "game.turn")
		span.SetAttributes(
			attribute.Int("game.day", day),
			attribute.Int("game.cash", l.st.Cash),
			attribute.String("game.location", l.st.Location),
		)

		l.board.Update()

		event := rollEvent(l.rng)
		if msg := l.applyOverdueLoan(); msg != "" {
			event = msg
		}
		l.log.Printf("day %d [%s] %s", day, l.st.Location, event)

		if msg := CheckEncounter(dayCtx, l.st, l.rng, l.tune, l.chooser, l.view(event)); msg != "" {
			l.log.Printf("day %d police: %s", day, msg)
			event = msg
		}

		var act protocol.Action
		var out Outcome
		switch {
		case l.st.JailTime > 0:
			// Decision request skipped entirely; Apply's own jail guard
			// decrements the sentence.
			out = Apply(l.st, l.board, l.tune, protocol.Action{})

		default:
			var err error
			act, err = l.decider.Decide(dayCtx, l.view(event))
			if err != nil {
				if ctx.Err() != nil {
					span.End()
					return l.report("interrupted"), ctx.Err()
				}
				out = Outcome{Message: "No valid action obtained. Skipping turn."}
			} else {
				out = Apply(l.st, l.board, l.tune, act)
			}
		}

		l.log.Printf("day %d action=%s result=%q", day, actionName(act), out.Message)

		rec := TurnRecord{
			Day:    day,
			Action: act,
			Result: out.Message,
			State:  l.st.Snapshot(),
			Prices: l.board.Snapshot(),
			Event:  event,
		}
		l.st.PushHistory(rec, l.tune.RecallTurns)
		l.emit(rec)

		span.SetAttributes(attribute.String("game.action", actionName(act)))
		span.End()

		if out.Quit {
			return l.report("quit"), nil
		}
		l.st.Day++
	}
	return l.report("day_limit"), nil
}

// applyOverdueLoan charges the late penalty once the due date passes and
// extends the due date by another loan term.
func (l *Loop) applyOverdueLoan() string {
	if l.st.Debt == 0 || l.st.Day < l.st.LoanDueDate {
		return ""
	}
	penalty := int(float64(l.st.Debt) * l.tune.LoanOverduePenalty)
	l.st.Debt += penalty
	l.st.LoanDueDate += l.tune.LoanDurationDays
	return fmt.Sprintf("Loan not repaid on time! A penalty of $%d has been added to your debt. New total debt: $%d. New due date: Day %d.",
		penalty, l.st.Debt, l.st.LoanDueDate)
}

func (l *Loop) view(event string) TurnView {
	snap := l.st.Snapshot()
	return TurnView{
		Day:         l.st.Day,
		Cash:        snap.Cash,
		Bank:        snap.Bank,
		Debt:        snap.Debt,
		LoanDueDate: l.st.LoanDueDate,
		Location:    snap.Location,
		JailTime:    l.st.JailTime,
		Inventory:   snap.Inventory,
		Prices:      l.board.Snapshot(),
		LastEvent:   event,
		History:     append([]TurnRecord(nil), l.st.History...),
	}
}

func (l *Loop) emit(rec TurnRecord) {
	for _, s := range l.sinks {
		if err := s.WriteTurn(rec); err != nil {
			l.log.Printf("turn sink: %v", err)
		}
	}
}

func (l *Loop) report(outcome string) Report {
	prices := l.board.Snapshot()
	return Report{
		DaysSurvived: l.st.Day - 1,
		FinalCash:    l.st.Cash,
		FinalBank:    l.st.Bank,
		FinalDebt:    l.st.Debt,
		TotalAssets:  l.st.TotalAssets(prices),
		Outcome:      outcome,
	}
}

func actionName(act protocol.Action) string {
	if act.IsZero() {
		return "none"
	}
	return act.Kind
}
