package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
	"github.com/hpungsan/sieve/internal/workflow"
)

// BulkInput contains parameters for the Bulk operation.
type BulkInput struct {
	Action  string   // required; any action except edit
	IDs     []string // required, at most 100
	Mode    string   // prioritize only
	Factors item.Factors
}

// BulkResult is the outcome for one id.
type BulkResult struct {
	ID      string     `json:"id"`
	Applied bool       `json:"applied"`
	Changed bool       `json:"changed"`
	From    item.Stage `json:"from,omitempty"`
	To      item.Stage `json:"to,omitempty"`
	Error   *BulkError `json:"error,omitempty"`
}

// BulkError reports why an id was not transitioned.
type BulkError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkOutput contains the result of the Bulk operation.
type BulkOutput struct {
	Action  string       `json:"action"`
	Results []BulkResult `json:"results"`
	Changed int          `json:"changed"`
	Failed  int          `json:"failed"`
	Message string       `json:"message"`
}

// Bulk applies one action to many items. Each id is committed on its own;
// a guard failure on one id is reported and does not stop the rest.
func Bulk(ctx context.Context, st *store.Store, cfg *config.Config, input BulkInput) (*BulkOutput, error) {
	action, ok := workflow.ParseAction(input.Action)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown action: %q", input.Action))
	}
	if action == workflow.ActionEdit {
		return nil, errors.NewInvalidRequest("edit is not supported in bulk")
	}
	ids, err := cleanIDs(input.IDs)
	if err != nil {
		return nil, err
	}
	args, err := transitionArgs(action, cfg, TransitionInput{Mode: input.Mode, Factors: input.Factors})
	if err != nil {
		return nil, err
	}

	out := &BulkOutput{Action: string(action), Results: make([]BulkResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled(err)
		}
		res, err := applyAction(ctx, st, id, action, args)
		if err != nil {
			se := errors.As(err)
			if se.Code == errors.ErrInternal {
				return nil, err
			}
			out.Failed++
			out.Results = append(out.Results, BulkResult{
				ID:    id,
				Error: &BulkError{Code: string(se.Code), Message: se.Message},
			})
			continue
		}
		if res.Changed {
			out.Changed++
		}
		out.Results = append(out.Results, BulkResult{
			ID:      id,
			Applied: res.Applied,
			Changed: res.Changed,
			From:    res.From,
			To:      res.To,
		})
	}

	out.Message = formatBulkMessage(action, len(ids), out.Changed, out.Failed)
	return out, nil
}

// BulkDeleteInput contains parameters for the BulkDelete operation.
type BulkDeleteInput struct {
	IDs []string
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int      `json:"deleted"`
	Missing []string `json:"missing"`
	Message string   `json:"message"`
}

// BulkDelete permanently removes many items. Unknown ids are reported as
// missing, not as errors.
func BulkDelete(ctx context.Context, st *store.Store, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	ids, err := cleanIDs(input.IDs)
	if err != nil {
		return nil, err
	}

	out := &BulkDeleteOutput{Missing: []string{}}
	for _, id := range ids {
		deleted, err := st.Delete(ctx, id)
		if err != nil {
			return nil, err
		}
		if deleted {
			out.Deleted++
		} else {
			out.Missing = append(out.Missing, id)
		}
	}

	if out.Deleted == 0 {
		out.Message = "No items matched the given ids"
	} else {
		out.Message = fmt.Sprintf("Deleted %s", plural(out.Deleted, "item"))
	}
	return out, nil
}

// cleanIDs trims, de-duplicates and bounds an id list.
func cleanIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, errors.NewInvalidRequest("at least one id is required")
	}
	if len(out) > MaxBulkItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d ids per request", MaxBulkItems))
	}
	return out, nil
}

func formatBulkMessage(action workflow.Action, total, changed, failed int) string {
	if changed == 0 && failed == 0 {
		return fmt.Sprintf("%s: nothing to change across %s", action, plural(total, "item"))
	}
	msg := fmt.Sprintf("%s: changed %s", action, plural(changed, "item"))
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return msg
}
