package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
	"github.com/hpungsan/sieve/internal/workflow"
)

// EditInput contains parameters for the Edit operation. A nil field is
// left alone; an empty string clears it.
type EditInput struct {
	ID           string
	AssignedTo   *string
	StartDate    *string
	DueDate      *string
	Project      *string
	TaskCategory *string // future|maintain|distraction, "" clears
}

// Edit sets scheduling metadata on a processed item.
func Edit(ctx context.Context, st *store.Store, input EditInput) (*TransitionOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	e, err := buildEdit(input)
	if err != nil {
		return nil, err
	}
	if e.Empty() {
		return nil, errors.NewInvalidRequest("at least one field to edit is required")
	}
	return applyAction(ctx, st, id, workflow.ActionEdit, workflow.Args{Edit: e})
}

func buildEdit(input EditInput) (workflow.Edit, error) {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	e := workflow.Edit{
		AssignedTo: trim(input.AssignedTo),
		StartDate:  trim(input.StartDate),
		DueDate:    trim(input.DueDate),
		Project:    trim(input.Project),
	}
	if tc := trim(input.TaskCategory); tc != nil {
		var v item.TaskCategory
		if *tc != "" {
			parsed, ok := item.ParseTaskCategory(*tc)
			if !ok {
				return e, errors.NewInvalidRequest(fmt.Sprintf("task_category must be one of: future, maintain, distraction (got %q)", *tc))
			}
			v = parsed
		}
		e.TaskCategory = &v
	}
	return e, nil
}
