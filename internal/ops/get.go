package ops

import (
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
	"github.com/hpungsan/sieve/internal/workflow"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// GetOutput contains the item and the actions its stage allows.
type GetOutput struct {
	Item    *item.Item `json:"item"`
	Actions []string   `json:"actions"`
}

// Get retrieves a single item by id.
func Get(st *store.Store, input GetInput) (*GetOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	it, ok := st.Get(id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return &GetOutput{Item: it, Actions: actionNames(workflow.Allowed(it.Stage))}, nil
}

func actionNames(actions []workflow.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}
