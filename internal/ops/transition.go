package ops

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/scoring"
	"github.com/hpungsan/sieve/internal/store"
	"github.com/hpungsan/sieve/internal/workflow"
)

// TransitionInput contains parameters for the Transition operation.
type TransitionInput struct {
	ID     string
	Action string // process|archive|prioritize|move-to-review|restore|start|done|reschedule|edit

	// prioritize
	Mode    string
	Factors item.Factors

	// edit
	Edit workflow.Edit
}

// TransitionOutput contains the result of the Transition operation.
type TransitionOutput struct {
	ID       string            `json:"id"`
	Action   string            `json:"action"`
	Applied  bool              `json:"applied"`
	Changed  bool              `json:"changed"`
	From     item.Stage        `json:"from,omitempty"`
	To       item.Stage        `json:"to,omitempty"`
	Decision *scoring.Decision `json:"decision,omitempty"`
	Item     *item.Item        `json:"item,omitempty"`
}

// Transition applies one workflow action to an item and commits the result.
// An unknown id is a no-op (applied=false). A guard failure returns
// INVALID_TRANSITION and leaves the item untouched.
func Transition(ctx context.Context, st *store.Store, cfg *config.Config, input TransitionInput) (*TransitionOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	action, ok := workflow.ParseAction(input.Action)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown action: %q", input.Action))
	}
	args, err := transitionArgs(action, cfg, input)
	if err != nil {
		return nil, err
	}
	return applyAction(ctx, st, id, action, args)
}

// transitionArgs validates the inputs an action needs.
func transitionArgs(action workflow.Action, cfg *config.Config, input TransitionInput) (workflow.Args, error) {
	var args workflow.Args
	switch action {
	case workflow.ActionPrioritize:
		mode, err := parseMode(input.Mode, false)
		if err != nil {
			return args, err
		}
		if err := validateFactors(mode, input.Factors); err != nil {
			return args, err
		}
		th := thresholdsOf(cfg)
		args.Mode = mode
		args.Factors = input.Factors
		args.Thresholds = &th
	case workflow.ActionEdit:
		if input.Edit.Empty() {
			return args, errors.NewInvalidRequest("at least one field to edit is required")
		}
		args.Edit = input.Edit
	}
	return args, nil
}

func thresholdsOf(cfg *config.Config) scoring.Thresholds {
	if cfg == nil {
		return scoring.DefaultThresholds()
	}
	return cfg.ScoringThresholds()
}

// applyAction runs the engine inside the store's compare-and-swap so the
// guard sees the same item the write replaces.
func applyAction(ctx context.Context, st *store.Store, id string, action workflow.Action, args workflow.Args) (*TransitionOutput, error) {
	var res workflow.Result
	stored, found, err := st.Modify(ctx, id, func(cur *item.Item) (*item.Item, error) {
		r, err := workflow.Apply(cur, action, args)
		if err != nil {
			return nil, err
		}
		res = r
		if !r.Changed {
			return nil, nil
		}
		return r.Item, nil
	})
	if err != nil {
		return nil, err
	}

	out := &TransitionOutput{ID: id, Action: string(action)}
	if !found {
		slog.DebugContext(ctx, "transition on unknown item ignored", "id", id, "action", action)
		return out, nil
	}
	out.Applied = true
	out.Changed = res.Changed
	out.From = res.From
	out.To = res.To
	out.Decision = res.Decision
	out.Item = stored

	if res.Changed {
		slog.DebugContext(ctx, "transition committed",
			"id", id, "action", action, "from", res.From, "to", res.To)
	}
	return out, nil
}
