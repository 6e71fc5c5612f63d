// Package scoring computes priority scores and maps them to buckets.
//
// Professional mode uses RICE (reach * impact * confidence / effort) and
// personal mode uses ICE (impact * confidence / effort). Both are total:
// effort below 1 is treated as 1 and factor ranges are not checked here.
package scoring

import "github.com/hpungsan/sieve/internal/item"

// Score computes the priority score for mode. Any mode other than
// professional uses the personal formula.
func Score(mode item.Mode, f item.Factors) float64 {
	effort := f.Effort
	if effort < 1 {
		effort = 1
	}
	num := float64(f.Impact) * float64(f.Confidence)
	if mode == item.ModeProfessional {
		num *= float64(f.Reach)
	}
	return num / float64(effort)
}

// Outcome is the bucket a score is routed to.
type Outcome string

const (
	OutcomeSchedule   Outcome = "schedule"
	OutcomeReEvaluate Outcome = "re-evaluate"
	OutcomeDiscard    Outcome = "discard"
)

// ParseOutcome validates an outcome name.
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeSchedule, OutcomeReEvaluate, OutcomeDiscard:
		return Outcome(s), true
	}
	return "", false
}

// Stage returns the lifecycle stage an outcome commits to.
func (o Outcome) Stage() item.Stage {
	switch o {
	case OutcomeReEvaluate:
		return item.StageReEvaluate
	case OutcomeDiscard:
		return item.StageDiscarded
	}
	return item.StageScheduled
}

// Decision is the classification of a score, with the legacy flag view.
type Decision struct {
	Outcome  Outcome        `json:"outcome"`
	Category *item.Category `json:"category,omitempty"`
	Binned   bool           `json:"binned,omitempty"`
}

func decisionFor(o Outcome) Decision {
	d := Decision{Outcome: o}
	switch o {
	case OutcomeReEvaluate:
		c := item.CategoryReEvaluate
		d.Category = &c
	case OutcomeDiscard:
		d.Binned = true
	}
	return d
}
