package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

type fakeAssistant struct {
	summarized string
	tags       assist.Tags
}

func (f *fakeAssistant) Summarize(_ context.Context, text string) assist.Text {
	f.summarized = text
	return assist.Text{Value: "summary"}
}

func (f *fakeAssistant) SuggestTags(context.Context, *item.Item) assist.Tags {
	return f.tags
}

func (f *fakeAssistant) EstimateEffort(context.Context, *item.Item) assist.Text {
	return assist.Text{Value: assist.FallbackEffort, Fallback: true}
}

func TestSummarize(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	withBody, err := Create(ctx, st, CreateInput{Title: "t", Body: "long body"})
	require.NoError(t, err)
	titleOnly := capture(t, st, "just a title")

	fa := &fakeAssistant{}
	out, err := Summarize(ctx, st, fa, AssistInput{ID: withBody.ID})
	require.NoError(t, err)
	assert.Equal(t, "summary", out.Summary)
	assert.Equal(t, "t\nlong body", fa.summarized)

	_, err = Summarize(ctx, st, fa, AssistInput{ID: titleOnly})
	require.NoError(t, err)
	assert.Equal(t, "just a title", fa.summarized)

	_, err = Summarize(ctx, st, fa, AssistInput{ID: "nope"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSuggestTagsApply(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	created, err := Create(ctx, st, CreateInput{Title: "Plant tomatoes", Tags: []string{"garden"}})
	require.NoError(t, err)

	fa := &fakeAssistant{tags: assist.Tags{Values: []string{"Garden", "spring"}}}

	out, err := SuggestTags(ctx, st, fa, SuggestTagsInput{ID: created.ID})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	got, _ := st.Get(created.ID)
	assert.Equal(t, []string{"garden"}, got.Tags)

	out, err = SuggestTags(ctx, st, fa, SuggestTagsInput{ID: created.ID, Apply: true})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"garden", "spring"}, out.Item.Tags)
	assert.Equal(t, created.Item.Revision+1, out.Item.Revision)

	// Nothing new to merge: no write.
	out, err = SuggestTags(ctx, st, fa, SuggestTagsInput{ID: created.ID, Apply: true})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, created.Item.Revision+1, out.Item.Revision)
}

func TestSuggestTagsFallbackDoesNotWrite(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	id := capture(t, st, "x")

	fa := &fakeAssistant{tags: assist.Tags{Values: []string{}, Fallback: true}}
	out, err := SuggestTags(ctx, st, fa, SuggestTagsInput{ID: id, Apply: true})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.False(t, out.Applied)
	assert.Nil(t, out.Item)
}

func TestEstimateEffortDisabledService(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Paint the fence")

	out, err := EstimateEffort(context.Background(), st, assist.NewService(nil, 0, nil), AssistInput{ID: id})
	require.NoError(t, err)
	assert.Equal(t, assist.FallbackEffort, out.Estimate)
	assert.True(t, out.Fallback)
}
