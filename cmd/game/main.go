// Command game runs one agent-driven Drug Wars simulation to completion.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"drugwars.ai/internal/agent"
	"drugwars.ai/internal/persistence/indexdb"
	"drugwars.ai/internal/persistence/journal"
	"drugwars.ai/internal/sim/game"
	"drugwars.ai/internal/sim/tuning"
	"drugwars.ai/internal/telemetry"
	"drugwars.ai/internal/transport/observer"
)

func main() {
	var (
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir     = flag.String("data", "./data", "runtime data directory (journal + index)")
		disableDB   = flag.Bool("disable_db", false, "disable the SQLite results index")
		observeAddr = flag.String("observe", "", "observer http listen address (empty to disable)")
		seedFlag    = flag.Int64("seed", 0, "override tuning seed (0 keeps tuning value)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[game] ", log.LstdFlags|log.Lmicroseconds)

	// .env is optional; the agent endpoint vars may be set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf(".env not loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			logger.Printf("telemetry setup failed, continuing without: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logger.Printf("telemetry shutdown: %v", err)
				}
			}()
		}
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	seed := tune.Seed
	if *seedFlag != 0 {
		seed = *seedFlag
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	runID := uuid.NewString()
	logger.Printf("run %s seed=%d max_days=%d", runID, seed, tune.MaxDays)

	client := agent.New(agentConfigFromEnv(), tune, log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lmicroseconds))

	var sinks []game.TurnSink

	jw, err := journal.NewWriter(filepath.Join(*dataDir, "journal"), journal.Header{RunID: runID, Seed: seed})
	if err != nil {
		logger.Fatalf("open journal: %v", err)
	}
	defer jw.Close()
	sinks = append(sinks, jw)
	logger.Printf("journal %s", jw.Path())

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"), runID, seed)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		sinks = append(sinks, idx)
	}

	if *observeAddr != "" {
		obs := observer.NewServer(log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds))
		sinks = append(sinks, obs)
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/observe", obs.WSHandler())
		mux.HandleFunc("/v1/status", obs.StatusHandler())
		srv := &http.Server{Addr: *observeAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer server: %v", err)
			}
		}()
		defer srv.Close()
		logger.Printf("observer feed on ws://%s/v1/observe", *observeAddr)
	}

	loop := game.NewLoop(tune, rng, client, client, logger, sinks...)
	report, err := loop.Run(ctx)
	if err != nil {
		logger.Printf("run ended early: %v", err)
	}

	logger.Printf("game over: outcome=%s days_survived=%d", report.Outcome, report.DaysSurvived)
	logger.Printf("total assets: $%d (cash $%d, bank $%d, debt $%d)",
		report.TotalAssets, report.FinalCash, report.FinalBank, report.FinalDebt)
	if report.FinalDebt > 0 {
		logger.Printf("outstanding debt: $%d", report.FinalDebt)
	}

	if idx != nil {
		idx.FinishRun(report)
	}
}

// agentConfigFromEnv reads the chat endpoint settings. Defaults target a
// local Ollama instance.
func agentConfigFromEnv() agent.Config {
	cfg := agent.Config{
		BaseURL: "http://localhost:11434/v1",
		APIKey:  "ollama",
		Model:   "hermes3",
	}
	if v := strings.TrimSpace(os.Getenv("DRUGWARS_AGENT_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DRUGWARS_AGENT_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DRUGWARS_AGENT_MODEL")); v != "" {
		cfg.Model = v
	}
	return cfg
}
