package ops

import (
	"context"
	"log/slog"

	"github.com/hpungsan/sieve/internal/store"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete permanently removes an item. An unknown id is a no-op
// (deleted=false).
func Delete(ctx context.Context, st *store.Store, input DeleteInput) (*DeleteOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	deleted, err := st.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted {
		slog.DebugContext(ctx, "item deleted", "id", id)
	}

	return &DeleteOutput{
		Deleted: deleted,
		ID:      id,
	}, nil
}
