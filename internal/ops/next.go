package ops

import (
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/projection"
	"github.com/hpungsan/sieve/internal/store"
)

// NextInput contains parameters for the Next operation.
type NextInput struct {
	Mode string // optional filter
}

// NextOutput contains the result of the Next operation.
type NextOutput struct {
	Item      *item.Item `json:"item"` // nil when nothing is scheduled
	Remaining int        `json:"remaining"`
}

// Next returns the highest-priority scheduled item.
func Next(st *store.Store, input NextInput) (*NextOutput, error) {
	mode, err := parseMode(input.Mode, true)
	if err != nil {
		return nil, err
	}
	scheduled := itemFilter{Mode: mode}.apply(projection.Scheduled(st.All()))
	if len(scheduled) == 0 {
		return &NextOutput{Item: nil}, nil
	}
	return &NextOutput{Item: scheduled[0], Remaining: len(scheduled) - 1}, nil
}
