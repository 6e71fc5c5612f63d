package ops

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

func TestBulk(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	cfg := config.DefaultConfig()

	a := capture(t, st, "a")
	b := capture(t, st, "b")
	c := capture(t, st, "c")
	act(t, st, c, "process")

	out, err := Bulk(ctx, st, cfg, BulkInput{Action: "process", IDs: []string{a, b, c, "missing", a, " "}})
	require.NoError(t, err)
	require.Len(t, out.Results, 4)
	assert.Equal(t, 2, out.Changed)
	assert.Equal(t, 0, out.Failed)
	assert.Equal(t, "process: changed 2 items", out.Message)

	assert.True(t, out.Results[2].Applied)
	assert.False(t, out.Results[2].Changed)
	assert.False(t, out.Results[3].Applied)

	out, err = Bulk(ctx, st, cfg, BulkInput{
		Action:  "prioritize",
		IDs:     []string{a, b},
		Mode:    "personal",
		Factors: item.Factors{Impact: 50, Confidence: 50, Effort: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Changed)
	assert.Equal(t, item.StageScheduled, out.Results[0].To)

	out, err = Bulk(ctx, st, cfg, BulkInput{Action: "start", IDs: []string{a, c}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Changed)
	assert.Equal(t, 1, out.Failed)
	require.NotNil(t, out.Results[1].Error)
	assert.Equal(t, string(errors.ErrInvalidTransition), out.Results[1].Error.Code)
	assert.Equal(t, "start: changed 1 item, 1 failed", out.Message)
}

func TestBulkValidation(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	cfg := config.DefaultConfig()

	tests := []struct {
		name  string
		input BulkInput
	}{
		{"no ids", BulkInput{Action: "process"}},
		{"blank ids", BulkInput{Action: "process", IDs: []string{"", " "}}},
		{"unknown action", BulkInput{Action: "fly", IDs: []string{"x"}}},
		{"edit", BulkInput{Action: "edit", IDs: []string{"x"}}},
		{"prioritize without mode", BulkInput{Action: "prioritize", IDs: []string{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bulk(ctx, st, cfg, tt.input)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}

	many := make([]string, MaxBulkItems+1)
	for i := range many {
		many[i] = fmt.Sprintf("id-%d", i)
	}
	_, err := Bulk(ctx, st, cfg, BulkInput{Action: "process", IDs: many})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestBulkCancelled(t *testing.T) {
	st := store.New()
	id := capture(t, st, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Bulk(ctx, st, config.DefaultConfig(), BulkInput{Action: "process", IDs: []string{id}})
	assert.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestBulkDelete(t *testing.T) {
	st := store.New()
	a := capture(t, st, "a")
	b := capture(t, st, "b")

	out, err := BulkDelete(context.Background(), st, BulkDeleteInput{IDs: []string{a, b, "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, []string{"ghost"}, out.Missing)
	assert.Equal(t, "Deleted 2 items", out.Message)
	assert.Equal(t, 0, st.Len())
}

func TestPurge(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	cfg := config.DefaultConfig()

	done := capture(t, st, "finished")
	act(t, st, done, "process")
	act(t, st, done, "done")
	open := capture(t, st, "still open")

	out, err := Purge(ctx, st, cfg, PurgeInput{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Purged)
	assert.Equal(t, "No done items to purge", out.Message)

	later := time.Now().AddDate(0, 0, cfg.PurgeAfterDays+1)
	out, err = Purge(ctx, st, cfg, PurgeInput{}, later)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Purged)
	assert.Equal(t, []string{done}, out.IDs)

	_, ok := st.Get(open)
	assert.True(t, ok)

	_, err = Purge(ctx, st, cfg, PurgeInput{OlderThanDays: ptr(-1)}, time.Now())
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
