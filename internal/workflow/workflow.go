// Package workflow is the item lifecycle state machine.
//
// Every action is a pure function from the current item to the next one:
// the input is never mutated and the caller commits the returned item to
// the store. An action applied to an item that already sits in the action's
// target stage is a no-op rather than an error, so repeating an action is
// safe.
package workflow

import (
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/scoring"
)

// Action names a user-triggered transition.
type Action string

const (
	ActionProcess      Action = "process"
	ActionArchive      Action = "archive"
	ActionPrioritize   Action = "prioritize"
	ActionMoveToReview Action = "move-to-review"
	ActionRestore      Action = "restore"
	ActionStart        Action = "start"
	ActionDone         Action = "done"
	ActionReschedule   Action = "reschedule"
	ActionEdit         Action = "edit"
)

// Actions lists every action in lifecycle order.
var Actions = []Action{
	ActionProcess, ActionArchive, ActionPrioritize, ActionMoveToReview,
	ActionRestore, ActionStart, ActionDone, ActionReschedule, ActionEdit,
}

// ParseAction resolves an action name. "review" and "complete" are accepted
// as aliases.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "review", "move_to_review":
		return ActionMoveToReview, true
	case "complete", "mark-done":
		return ActionDone, true
	}
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

type rule struct {
	from []item.Stage
	// target is the fixed destination, or "" when it depends on the item
	target item.Stage
}

var transitions = map[Action]rule{
	ActionProcess:      {from: []item.Stage{item.StageInbox}, target: item.StageReview},
	ActionArchive:      {from: []item.Stage{item.StageInbox}, target: item.StageDiscarded},
	ActionPrioritize:   {from: []item.Stage{item.StageReview}},
	ActionMoveToReview: {from: []item.Stage{item.StageReEvaluate}, target: item.StageReview},
	ActionRestore:      {from: []item.Stage{item.StageDiscarded}, target: item.StageReview},
	ActionStart:        {from: []item.Stage{item.StageScheduled}, target: item.StageOngoing},
	ActionDone: {
		from: []item.Stage{
			item.StageReview, item.StageScheduled, item.StageReEvaluate,
			item.StageDiscarded, item.StageOngoing,
		},
		target: item.StageDone,
	},
	ActionReschedule: {from: []item.Stage{item.StageOngoing}},
	ActionEdit: {
		from: []item.Stage{
			item.StageReview, item.StageScheduled, item.StageReEvaluate,
			item.StageDiscarded, item.StageOngoing, item.StageDone,
		},
	},
}

// Result is the outcome of applying an action.
type Result struct {
	Item    *item.Item
	Changed bool
	From    item.Stage
	To      item.Stage

	// Decision is set by prioritize
	Decision *scoring.Decision
}

// Args carries the inputs some actions need.
type Args struct {
	Mode       item.Mode
	Factors    item.Factors
	Thresholds *scoring.Thresholds
	Edit       Edit
}

// Edit sets scheduling metadata. A nil field is left alone; a pointer to
// the empty value clears the field.
type Edit struct {
	AssignedTo   *string
	StartDate    *string
	DueDate      *string
	Project      *string
	TaskCategory *item.TaskCategory
}

// Empty reports whether the edit touches no field.
func (e Edit) Empty() bool {
	return e.AssignedTo == nil && e.StartDate == nil && e.DueDate == nil &&
		e.Project == nil && e.TaskCategory == nil
}

// Allowed returns the actions whose guard accepts stage.
func Allowed(stage item.Stage) []Action {
	var out []Action
	for _, a := range Actions {
		if canApply(a, stage) {
			out = append(out, a)
		}
	}
	return out
}

// Can reports whether action's guard accepts stage.
func Can(action Action, stage item.Stage) bool {
	return canApply(action, stage)
}

func canApply(a Action, stage item.Stage) bool {
	r, ok := transitions[a]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == stage {
			return true
		}
	}
	return false
}

// guard returns (noop, error). noop is true when the item already sits in
// the action's fixed target stage.
func guard(a Action, it *item.Item) (bool, error) {
	if canApply(a, it.Stage) {
		return false, nil
	}
	if r := transitions[a]; r.target != "" && r.target == it.Stage {
		return true, nil
	}
	return false, errors.NewInvalidTransition(string(a), string(it.Stage))
}

// Apply dispatches action to its transition function.
func Apply(it *item.Item, action Action, args Args) (Result, error) {
	switch action {
	case ActionProcess:
		return Process(it)
	case ActionArchive:
		return Archive(it)
	case ActionPrioritize:
		th := scoring.DefaultThresholds()
		if args.Thresholds != nil {
			th = *args.Thresholds
		}
		return Prioritize(it, args.Mode, args.Factors, th)
	case ActionMoveToReview:
		return MoveToReview(it)
	case ActionRestore:
		return Restore(it)
	case ActionStart:
		return Start(it)
	case ActionDone:
		return Done(it)
	case ActionReschedule:
		return Reschedule(it)
	case ActionEdit:
		return EditFields(it, args.Edit)
	}
	return Result{}, errors.NewInvalidRequest("unknown action: " + string(action))
}

// move applies a fixed-target transition.
func move(a Action, it *item.Item) (Result, error) {
	noop, err := guard(a, it)
	if err != nil {
		return Result{}, err
	}
	next := it.Clone()
	res := Result{Item: next, From: it.Stage, To: it.Stage}
	if noop {
		return res, nil
	}
	next.Stage = transitions[a].target
	res.To = next.Stage
	res.Changed = true
	return res, nil
}

// Process moves an inbox item into review.
func Process(it *item.Item) (Result, error) {
	return move(ActionProcess, it)
}

// Archive bins an inbox item without scoring it.
func Archive(it *item.Item) (Result, error) {
	return move(ActionArchive, it)
}

// MoveToReview returns a re-evaluate item to review. The assessment is kept
// until the item is prioritized again.
func MoveToReview(it *item.Item) (Result, error) {
	return move(ActionMoveToReview, it)
}

// Restore returns a discarded item to review, keeping any assessment.
func Restore(it *item.Item) (Result, error) {
	return move(ActionRestore, it)
}

// Start begins work on a scheduled item.
func Start(it *item.Item) (Result, error) {
	return move(ActionStart, it)
}

// Done completes an item from any processed, unfinished stage.
func Done(it *item.Item) (Result, error) {
	return move(ActionDone, it)
}

// Prioritize scores a review item and routes it by the thresholds. Any
// earlier assessment is overwritten.
func Prioritize(it *item.Item, mode item.Mode, f item.Factors, th scoring.Thresholds) (Result, error) {
	if _, err := guard(ActionPrioritize, it); err != nil {
		return Result{}, err
	}
	if mode != item.ModeProfessional {
		f.Reach = 0 // ICE has no reach term
	}
	score := scoring.Score(mode, f)
	decision := th.Classify(mode, score)

	next := it.Clone()
	next.Assessment = &item.Assessment{Mode: mode, Factors: f, FinalScore: score}
	next.Stage = decision.Outcome.Stage()
	return Result{
		Item:     next,
		Changed:  true,
		From:     it.Stage,
		To:       next.Stage,
		Decision: &decision,
	}, nil
}

// Reschedule puts an ongoing item back into the todo buckets: scheduled if
// it has been scored, review otherwise. Items already in a todo bucket are
// left as they are.
func Reschedule(it *item.Item) (Result, error) {
	if it.Stage.Todo() {
		return Result{Item: it.Clone(), From: it.Stage, To: it.Stage}, nil
	}
	if _, err := guard(ActionReschedule, it); err != nil {
		return Result{}, err
	}
	next := it.Clone()
	if next.Scored() {
		next.Stage = item.StageScheduled
	} else {
		next.Stage = item.StageReview
	}
	return Result{Item: next, Changed: true, From: it.Stage, To: next.Stage}, nil
}

// EditFields sets scheduling metadata on a processed item. The stage does
// not change.
func EditFields(it *item.Item, e Edit) (Result, error) {
	if _, err := guard(ActionEdit, it); err != nil {
		return Result{}, err
	}
	next := it.Clone()
	changed := false
	changed = setString(&next.AssignedTo, e.AssignedTo) || changed
	changed = setString(&next.StartDate, e.StartDate) || changed
	changed = setString(&next.DueDate, e.DueDate) || changed
	changed = setString(&next.Project, e.Project) || changed
	if e.TaskCategory != nil {
		var v *item.TaskCategory
		if *e.TaskCategory != "" {
			tc := *e.TaskCategory
			v = &tc
		}
		if !sameTaskCategory(next.TaskCategory, v) {
			next.TaskCategory = v
			changed = true
		}
	}
	return Result{Item: next, Changed: changed, From: it.Stage, To: it.Stage}, nil
}

func setString(dst **string, v *string) bool {
	if v == nil {
		return false
	}
	var nv *string
	if *v != "" {
		s := *v
		nv = &s
	}
	old := *dst
	if (old == nil && nv == nil) || (old != nil && nv != nil && *old == *nv) {
		return false
	}
	*dst = nv
	return true
}

func sameTaskCategory(a, b *item.TaskCategory) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
