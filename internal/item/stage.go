package item

import "strings"

// Stage is an item's position in the lifecycle.
type Stage string

const (
	StageInbox      Stage = "inbox"
	StageReview     Stage = "review"
	StageScheduled  Stage = "scheduled"
	StageReEvaluate Stage = "re-evaluate"
	StageDiscarded  Stage = "discarded"
	StageOngoing    Stage = "ongoing"
	StageDone       Stage = "done"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{
	StageInbox, StageReview, StageScheduled, StageReEvaluate,
	StageDiscarded, StageOngoing, StageDone,
}

// ParseStage resolves a stage name. "reevaluate" and "bin" are accepted as
// aliases.
func ParseStage(s string) (Stage, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "reevaluate":
		return StageReEvaluate, true
	case "bin", "binned", "discard":
		return StageDiscarded, true
	}
	for _, st := range Stages {
		if string(st) == v {
			return st, true
		}
	}
	return "", false
}

// Todo reports whether the stage is one of the processed, not-yet-started
// buckets (legacy status "todo").
func (s Stage) Todo() bool {
	switch s {
	case StageReview, StageScheduled, StageReEvaluate, StageDiscarded:
		return true
	}
	return false
}

// Status is the legacy coarse status flag.
type Status string

const (
	StatusTodo    Status = "todo"
	StatusOngoing Status = "ongoing"
	StatusDone    Status = "done"
)

// Category is the legacy sub-bucket flag.
type Category string

const (
	CategoryReEvaluate Category = "re-evaluate"
	CategoryDoNow      Category = "do-now"
)

// Flags is the legacy flag-combination encoding of a stage.
type Flags struct {
	Processed bool
	Status    Status
	Binned    bool
	Category  Category
}

// FlagsFor encodes a stage as legacy flags.
func FlagsFor(s Stage) Flags {
	switch s {
	case StageInbox, "":
		return Flags{}
	case StageReview, StageScheduled:
		return Flags{Processed: true, Status: StatusTodo}
	case StageReEvaluate:
		return Flags{Processed: true, Status: StatusTodo, Category: CategoryReEvaluate}
	case StageDiscarded:
		return Flags{Processed: true, Status: StatusTodo, Binned: true}
	case StageOngoing:
		return Flags{Processed: true, Status: StatusOngoing}
	case StageDone:
		return Flags{Processed: true, Status: StatusDone}
	}
	return Flags{Processed: true, Status: StatusTodo}
}

// Flags returns the legacy flag encoding of the item's stage.
func (it *Item) Flags() Flags {
	return FlagsFor(it.Stage)
}

// DeriveStage decodes legacy flags. scored reports whether a final score is
// present, which separates review from scheduled. "do-now" has no bucket of
// its own and falls through to the score check.
func DeriveStage(f Flags, scored bool) Stage {
	if !f.Processed {
		return StageInbox
	}
	switch f.Status {
	case StatusOngoing:
		return StageOngoing
	case StatusDone:
		return StageDone
	}
	if f.Binned {
		return StageDiscarded
	}
	if f.Category == CategoryReEvaluate {
		return StageReEvaluate
	}
	if scored {
		return StageScheduled
	}
	return StageReview
}
