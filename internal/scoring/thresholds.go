package scoring

import (
	"fmt"

	"github.com/hpungsan/sieve/internal/item"
)

// Rule routes scores at or above MinScore to Outcome.
type Rule struct {
	MinScore float64 `json:"min_score"`
	Outcome  Outcome `json:"outcome"`
}

// Table is an ordered threshold list for one mode. Rules are checked in
// order; a score below every rule gets Below.
type Table struct {
	Rules []Rule  `json:"rules"`
	Below Outcome `json:"below"`
}

// Classify returns the outcome for score.
func (t Table) Classify(score float64) Outcome {
	for _, r := range t.Rules {
		if score >= r.MinScore {
			return r.Outcome
		}
	}
	return t.Below
}

// Validate checks that rules are strictly descending and outcomes known.
func (t Table) Validate() error {
	for i, r := range t.Rules {
		if _, ok := ParseOutcome(string(r.Outcome)); !ok {
			return fmt.Errorf("rule %d: unknown outcome %q", i, r.Outcome)
		}
		if i > 0 && r.MinScore >= t.Rules[i-1].MinScore {
			return fmt.Errorf("rule %d: min_score %g must be below %g", i, r.MinScore, t.Rules[i-1].MinScore)
		}
	}
	if _, ok := ParseOutcome(string(t.Below)); !ok {
		return fmt.Errorf("unknown below outcome %q", t.Below)
	}
	return nil
}

// Thresholds holds one table per mode.
type Thresholds struct {
	Professional Table `json:"professional"`
	Personal     Table `json:"personal"`
}

// DefaultThresholds returns the built-in tables:
// professional schedules at 1000, re-evaluates at 250;
// personal schedules at 50, re-evaluates at 10.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Professional: Table{
			Rules: []Rule{
				{MinScore: 1000, Outcome: OutcomeSchedule},
				{MinScore: 250, Outcome: OutcomeReEvaluate},
			},
			Below: OutcomeDiscard,
		},
		Personal: Table{
			Rules: []Rule{
				{MinScore: 50, Outcome: OutcomeSchedule},
				{MinScore: 10, Outcome: OutcomeReEvaluate},
			},
			Below: OutcomeDiscard,
		},
	}
}

// Table returns the table for mode; unknown modes use the personal table.
func (t Thresholds) Table(mode item.Mode) Table {
	if mode == item.ModeProfessional {
		return t.Professional
	}
	return t.Personal
}

// Classify decides the bucket for a score in mode.
func (t Thresholds) Classify(mode item.Mode, score float64) Decision {
	return decisionFor(t.Table(mode).Classify(score))
}

// Validate checks both tables.
func (t Thresholds) Validate() error {
	if err := t.Professional.Validate(); err != nil {
		return fmt.Errorf("professional thresholds: %w", err)
	}
	if err := t.Personal.Validate(); err != nil {
		return fmt.Errorf("personal thresholds: %w", err)
	}
	return nil
}

// Classify decides the bucket using DefaultThresholds.
func Classify(mode item.Mode, score float64) Decision {
	return DefaultThresholds().Classify(mode, score)
}
