// Package indexdb keeps a SQLite read-model of completed runs and their
// turns. The index is written asynchronously off the day loop and is never
// consulted by the simulation itself; deleting it loses nothing but history.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"drugwars.ai/internal/sim/game"
)

type SQLiteIndex struct {
	db *sql.DB

	runID string

	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqFinish
)

type req struct {
	kind   reqKind
	turn   game.TurnRecord
	report game.Report
}

// RunRow is one row of the runs table.
type RunRow struct {
	RunID        string
	Seed         int64
	StartedAt    string
	FinishedAt   string
	DaysSurvived int
	FinalCash    int
	FinalBank    int
	FinalDebt    int
	TotalAssets  int
	Outcome      string
}

// Open creates (or reuses) the index at path and registers a fresh run row.
func Open(path, runID string, seed int64) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	startedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(
		`INSERT INTO runs (run_id, seed, started_at, outcome) VALUES (?, ?, ?, 'running')`,
		runID, seed, startedAt,
	); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:    db,
		runID: runID,
		// Buffered so a slow disk never stalls the day loop; overflow drops,
		// the journal remains the source of truth.
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			days_survived INTEGER NOT NULL DEFAULT 0,
			final_cash INTEGER NOT NULL DEFAULT 0,
			final_bank INTEGER NOT NULL DEFAULT 0,
			final_debt INTEGER NOT NULL DEFAULT 0,
			total_assets INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			run_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			action TEXT NOT NULL,
			result TEXT NOT NULL,
			event TEXT,
			cash INTEGER NOT NULL,
			bank INTEGER NOT NULL,
			debt INTEGER NOT NULL,
			location TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, day)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_day ON turns(day);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteTurn queues one turn row. Implements game.TurnSink.
func (s *SQLiteIndex) WriteTurn(rec game.TurnRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, turn: rec}:
	default:
		// Drop if the indexer falls behind.
	}
	return nil
}

// FinishRun records the final report on the run row. Blocks until queued so a
// process exiting right after a run still lands its summary.
func (s *SQLiteIndex) FinishRun(rep game.Report) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- req{kind: reqFinish, report: rep}
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqTurn:
			s.insertTurn(r.turn)
		case reqFinish:
			s.finishRun(r.report)
		}
	}
}

func (s *SQLiteIndex) insertTurn(rec game.TurnRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	action := rec.Action.Kind
	if action == "" {
		action = "none"
	}
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO turns (run_id, day, action, result, event, cash, bank, debt, location, raw_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, rec.Day, action, rec.Result, rec.Event,
		rec.State.Cash, rec.State.Bank, rec.State.Debt, rec.State.Location, string(raw),
	)
}

func (s *SQLiteIndex) finishRun(rep game.Report) {
	_, _ = s.db.Exec(
		`UPDATE runs SET finished_at = ?, days_survived = ?, final_cash = ?, final_bank = ?,
		 final_debt = ?, total_assets = ?, outcome = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		rep.DaysSurvived, rep.FinalCash, rep.FinalBank, rep.FinalDebt, rep.TotalAssets, rep.Outcome,
		s.runID,
	)
}

// ReadRun loads one run row; used by tooling and tests.
func (s *SQLiteIndex) ReadRun(runID string) (RunRow, error) {
	var row RunRow
	var finished sql.NullString
	err := s.db.QueryRow(
		`SELECT run_id, seed, started_at, finished_at, days_survived, final_cash, final_bank,
		 final_debt, total_assets, outcome FROM runs WHERE run_id = ?`, runID,
	).Scan(&row.RunID, &row.Seed, &row.StartedAt, &finished, &row.DaysSurvived,
		&row.FinalCash, &row.FinalBank, &row.FinalDebt, &row.TotalAssets, &row.Outcome)
	if err != nil {
		return RunRow{}, err
	}
	row.FinishedAt = finished.String
	return row, nil
}

// CountTurns reports how many turn rows a run has.
func (s *SQLiteIndex) CountTurns(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM turns WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
