package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning carries every gameplay and agent-loop constant. Values are loaded
// from tuning.yaml; zero fields fall back to Defaults.
type Tuning struct {
	MaxDays      int `yaml:"max_days"`
	StartingCash int `yaml:"starting_cash"`
	TravelCost   int `yaml:"travel_cost"`

	MaxLoanAmount      int     `yaml:"max_loan_amount"`
	LoanDurationDays   int     `yaml:"loan_duration_days"`
	LoanInterestRate   float64 `yaml:"loan_interest_rate"`
	LoanOverduePenalty float64 `yaml:"loan_overdue_penalty"`

	MaxSafeTurns     int `yaml:"max_safe_turns"`
	EncounterPercent int `yaml:"encounter_percent"`
	FineMin          int `yaml:"fine_min"`
	FineMax          int `yaml:"fine_max"`
	BribeCost        int `yaml:"bribe_cost"`
	JailMinDays      int `yaml:"jail_min_days"`
	JailMaxDays      int `yaml:"jail_max_days"`

	PriceFloor  int `yaml:"price_floor"`
	PriceJitter int `yaml:"price_jitter"`

	RecallTurns int `yaml:"recall_turns"`

	AgentMaxAttempts  int `yaml:"agent_max_attempts"`
	AgentRetryDelayMs int `yaml:"agent_retry_delay_ms"`
	AgentTimeoutMs    int `yaml:"agent_timeout_ms"`

	// Seed drives every random draw in the run. 0 picks a fresh seed.
	Seed int64 `yaml:"seed"`
}

func Defaults() Tuning {
	return Tuning{
		MaxDays:      356,
		StartingCash: 1000,
		TravelCost:   100,

		MaxLoanAmount:      5000,
		LoanDurationDays:   30,
		LoanInterestRate:   0.1,
		LoanOverduePenalty: 0.5,

		MaxSafeTurns:     3,
		EncounterPercent: 5,
		FineMin:          100,
		FineMax:          500,
		BribeCost:        500,
		JailMinDays:      1,
		JailMaxDays:      2,

		PriceFloor:  10,
		PriceJitter: 10,

		RecallTurns: 5,

		AgentMaxAttempts:  3,
		AgentRetryDelayMs: 2000,
		AgentTimeoutMs:    60000,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.MaxDays < 1:
		return fmt.Errorf("max_days must be >= 1, got %d", t.MaxDays)
	case t.FineMin > t.FineMax:
		return fmt.Errorf("fine_min %d > fine_max %d", t.FineMin, t.FineMax)
	case t.JailMinDays > t.JailMaxDays:
		return fmt.Errorf("jail_min_days %d > jail_max_days %d", t.JailMinDays, t.JailMaxDays)
	case t.JailMinDays < 1:
		return fmt.Errorf("jail_min_days must be >= 1, got %d", t.JailMinDays)
	case t.EncounterPercent < 0 || t.EncounterPercent > 100:
		return fmt.Errorf("encounter_percent must be 0..100, got %d", t.EncounterPercent)
	case t.RecallTurns < 1:
		return fmt.Errorf("recall_turns must be >= 1, got %d", t.RecallTurns)
	case t.AgentMaxAttempts < 1:
		return fmt.Errorf("agent_max_attempts must be >= 1, got %d", t.AgentMaxAttempts)
	}
	return nil
}
