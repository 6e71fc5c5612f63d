package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// AssistInput names the item an assist call reads.
type AssistInput struct {
	ID string
}

// SummarizeOutput contains a summary of an item's content.
type SummarizeOutput struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Fallback bool   `json:"fallback"`
}

// Summarize asks the assist service to summarize an item's title and body.
// The item is not changed.
func Summarize(ctx context.Context, st *store.Store, svc assist.Assistant, input AssistInput) (*SummarizeOutput, error) {
	it, err := assistTarget(st, input.ID)
	if err != nil {
		return nil, err
	}
	text := it.Title
	if body := strings.TrimSpace(it.Body); body != "" {
		text += "\n" + body
	}
	res := svc.Summarize(ctx, text)
	return &SummarizeOutput{ID: it.ID, Summary: res.Value, Fallback: res.Fallback}, nil
}

// SuggestTagsInput contains parameters for the SuggestTags operation.
type SuggestTagsInput struct {
	ID    string
	Apply bool // merge the suggestions into the item
}

// SuggestTagsOutput contains suggested tags and, when applied, the item.
type SuggestTagsOutput struct {
	ID       string     `json:"id"`
	Tags     []string   `json:"tags"`
	Fallback bool       `json:"fallback"`
	Applied  bool       `json:"applied"`
	Item     *item.Item `json:"item,omitempty"`
}

// SuggestTags asks for up to three tags. With Apply, new tags are appended
// to the item's tags; existing tags and their order are kept.
func SuggestTags(ctx context.Context, st *store.Store, svc assist.Assistant, input SuggestTagsInput) (*SuggestTagsOutput, error) {
	it, err := assistTarget(st, input.ID)
	if err != nil {
		return nil, err
	}
	res := svc.SuggestTags(ctx, it)
	out := &SuggestTagsOutput{ID: it.ID, Tags: res.Values, Fallback: res.Fallback}
	if !input.Apply || len(res.Values) == 0 {
		return out, nil
	}

	// The item may have changed while the assist call was in flight; merge
	// into whatever is stored now.
	changed := false
	stored, _, err := st.Modify(ctx, it.ID, func(cur *item.Item) (*item.Item, error) {
		merged := item.MergeTags(cur.Tags, res.Values)
		if len(merged) == len(cur.Tags) {
			return nil, nil
		}
		cur.Tags = merged
		changed = true
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	out.Applied = changed
	out.Item = stored
	return out, nil
}

// EstimateEffortOutput contains an effort estimate for an item.
type EstimateEffortOutput struct {
	ID       string `json:"id"`
	Estimate string `json:"estimate"`
	Fallback bool   `json:"fallback"`
}

// EstimateEffort asks for a time-based estimate of an item's effort.
func EstimateEffort(ctx context.Context, st *store.Store, svc assist.Assistant, input AssistInput) (*EstimateEffortOutput, error) {
	it, err := assistTarget(st, input.ID)
	if err != nil {
		return nil, err
	}
	res := svc.EstimateEffort(ctx, it)
	return &EstimateEffortOutput{ID: it.ID, Estimate: res.Value, Fallback: res.Fallback}, nil
}

func assistTarget(st *store.Store, rawID string) (*item.Item, error) {
	id, err := requireID(rawID)
	if err != nil {
		return nil, err
	}
	it, ok := st.Get(id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return it, nil
}
