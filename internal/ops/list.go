package ops

import (
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Stage  *string // optional filter
	Tag    *string // optional filter
	Mode   string  // optional filter: professional|personal
	Limit  int     // default: 50, max: 500
	Offset int     // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []item.Summary `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Sort       string         `json:"sort"`
}

// List returns item summaries across every stage, newest first.
func List(st *store.Store, input ListInput) (*ListOutput, error) {
	stage, err := parseStage(input.Stage)
	if err != nil {
		return nil, err
	}
	mode, err := parseMode(input.Mode, true)
	if err != nil {
		return nil, err
	}

	filter := itemFilter{Stage: stage, Tag: cleanOptionalString(input.Tag), Mode: mode}
	items := filter.apply(st.All())
	page, pagination := paginate(items, input.Limit, input.Offset)

	return &ListOutput{
		Items:      item.Summaries(page),
		Pagination: pagination,
		Sort:       "created_at_desc",
	}, nil
}
