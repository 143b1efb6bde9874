// Command replay prints the turns of a recorded run journal and recomputes
// its final score from the last record.
package main

import (
	"flag"
	"log"
	"os"

	"drugwars.ai/internal/persistence/journal"
)

func main() {
	var (
		path    = flag.String("journal", "", "path to a run_<id>.jsonl.zst journal")
		verbose = flag.Bool("v", false, "print every turn, not just the summary")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", 0)
	if *path == "" {
		logger.Fatal("usage: replay -journal <path>")
	}

	hdr, turns, err := journal.Read(*path)
	if err != nil {
		logger.Fatalf("read journal: %v", err)
	}

	logger.Printf("run %s seed=%d started=%s turns=%d", hdr.RunID, hdr.Seed, hdr.StartedAt, len(turns))
	if len(turns) == 0 {
		return
	}

	if *verbose {
		for _, t := range turns {
			action := t.Action.Kind
			if action == "" {
				action = "none"
			}
			logger.Printf("day %3d [%s] %s -> %s", t.Day, t.State.Location, action, t.Result)
			if t.Event != "" {
				logger.Printf("        event: %s", t.Event)
			}
		}
	}

	last := turns[len(turns)-1]
	assets := last.State.Cash + last.State.Bank - last.State.Debt
	for drug, qty := range last.State.Inventory {
		assets += qty * last.Prices[drug]
	}
	logger.Printf("final day %d: cash $%d, bank $%d, debt $%d, total assets $%d",
		last.Day, last.State.Cash, last.State.Bank, last.State.Debt, assets)
}
