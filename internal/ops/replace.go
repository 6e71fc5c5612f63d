package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// ReplaceInput contains parameters for the Replace operation.
type ReplaceInput struct {
	Item             *item.Item // required; matched by Item.ID
	ExpectedRevision *int64     // optional compare-and-swap guard
}

// ReplaceOutput contains the result of the Replace operation.
type ReplaceOutput struct {
	ID      string     `json:"id"`
	Updated bool       `json:"updated"`
	Item    *item.Item `json:"item,omitempty"`
}

// Replace overwrites a stored item wholesale. An unknown id is a no-op
// (updated=false). The replacement is trusted apart from its stage, which
// must be a known lifecycle stage.
func Replace(ctx context.Context, st *store.Store, input ReplaceInput) (*ReplaceOutput, error) {
	if input.Item == nil {
		return nil, errors.NewInvalidRequest("item is required")
	}
	id, err := requireID(input.Item.ID)
	if err != nil {
		return nil, err
	}
	next := input.Item.Clone()
	next.ID = id
	stage, ok := item.ParseStage(string(next.Stage))
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown stage: %q", next.Stage))
	}
	next.Stage = stage
	next.Tags = item.NormalizeTags(next.Tags)

	var updated bool
	if input.ExpectedRevision != nil {
		updated, err = st.UpdateIf(ctx, next, *input.ExpectedRevision)
	} else {
		updated, err = st.Update(ctx, next)
	}
	if err != nil {
		return nil, err
	}

	out := &ReplaceOutput{ID: id, Updated: updated}
	if updated {
		out.Item, _ = st.Get(id)
	}
	return out, nil
}
