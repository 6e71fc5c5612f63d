package ops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional; default: config purge_after_days
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int      `json:"purged"`
	IDs     []string `json:"ids"`
	Message string   `json:"message"`
}

// Purge permanently deletes done items last updated more than N days ago.
func Purge(ctx context.Context, st *store.Store, cfg *config.Config, input PurgeInput, now time.Time) (*PurgeOutput, error) {
	days := config.DefaultConfig().PurgeAfterDays
	if cfg != nil {
		days = cfg.PurgeAfterDays
	}
	if input.OlderThanDays != nil {
		days = *input.OlderThanDays
	}
	if days < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}
	cutoff := now.AddDate(0, 0, -days).Unix()

	out := &PurgeOutput{IDs: []string{}}
	for _, it := range st.All() {
		if it.Stage != item.StageDone || it.UpdatedAt > cutoff {
			continue
		}
		deleted, err := st.Delete(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		if deleted {
			out.Purged++
			out.IDs = append(out.IDs, it.ID)
		}
	}

	out.Message = formatPurgeMessage(out.Purged, days)
	if out.Purged > 0 {
		slog.InfoContext(ctx, "purged done items", "count", out.Purged, "older_than_days", days)
	}
	return out, nil
}

func formatPurgeMessage(count, days int) string {
	if count == 0 {
		return "No done items to purge"
	}
	return fmt.Sprintf("Permanently deleted %s (done more than %d days ago)", plural(count, "item"), days)
}
