package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/projection"
	"github.com/hpungsan/sieve/internal/scoring"
	"github.com/hpungsan/sieve/internal/store"
)

func ptr[T any](v T) *T { return &v }

func capture(t *testing.T, st *store.Store, title string) string {
	t.Helper()
	out, err := Create(context.Background(), st, CreateInput{Title: title, Source: "test"})
	require.NoError(t, err)
	return out.ID
}

func act(t *testing.T, st *store.Store, id, action string) *TransitionOutput {
	t.Helper()
	out, err := Transition(context.Background(), st, config.DefaultConfig(), TransitionInput{ID: id, Action: action})
	require.NoError(t, err)
	return out
}

func prioritize(t *testing.T, st *store.Store, id, mode string, f item.Factors) *TransitionOutput {
	t.Helper()
	out, err := Transition(context.Background(), st, config.DefaultConfig(), TransitionInput{
		ID: id, Action: "prioritize", Mode: mode, Factors: f,
	})
	require.NoError(t, err)
	return out
}

// viewIDs returns the ids in a named view.
func viewIDs(t *testing.T, st *store.Store, name projection.Name) []string {
	t.Helper()
	out, err := View(st, ViewInput{Name: string(name), Limit: MaxListLimit})
	require.NoError(t, err)
	ids := make([]string, 0, len(out.Items))
	for _, s := range out.Items {
		ids = append(ids, s.ID)
	}
	return ids
}

// viewsContaining lists every workflow view (plus done) that holds id.
func viewsContaining(t *testing.T, st *store.Store, id string) []projection.Name {
	t.Helper()
	var names []projection.Name
	for _, n := range projection.AllNames {
		for _, got := range viewIDs(t, st, n) {
			if got == id {
				names = append(names, n)
			}
		}
	}
	return names
}

func TestScenario_ProfessionalHighScoreIsScheduled(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Ship the quarterly report")

	assert.Equal(t, []projection.Name{projection.NameInbox}, viewsContaining(t, st, id))

	out := act(t, st, id, "process")
	assert.Equal(t, item.StageReview, out.To)

	out = prioritize(t, st, id, "professional", item.Factors{Reach: 80, Impact: 70, Confidence: 60, Effort: 20})
	require.NotNil(t, out.Item.Assessment)
	assert.Equal(t, 16800.0, out.Item.Assessment.FinalScore)
	assert.Equal(t, item.StageScheduled, out.To)

	assert.ElementsMatch(t,
		[]projection.Name{projection.NameScheduled, projection.NameCalendar},
		viewsContaining(t, st, id))
}

func TestScenario_PersonalLowScoreIsDiscarded(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Reorganize the spice rack")
	act(t, st, id, "process")

	out := prioritize(t, st, id, "personal", item.Factors{Impact: 20, Confidence: 20, Effort: 50})
	assert.Equal(t, 8.0, out.Item.Assessment.FinalScore)
	require.NotNil(t, out.Decision)
	assert.True(t, out.Decision.Binned)
	assert.True(t, out.Item.Flags().Binned)

	assert.ElementsMatch(t,
		[]projection.Name{projection.NameDiscard, projection.NameCalendar},
		viewsContaining(t, st, id))
}

func TestScenario_StartThenDone(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Fix login bug")
	act(t, st, id, "process")
	prioritize(t, st, id, "professional", item.Factors{Reach: 80, Impact: 70, Confidence: 60, Effort: 20})

	out := act(t, st, id, "start")
	assert.Equal(t, item.StageOngoing, out.To)
	assert.Equal(t, item.StatusOngoing, out.Item.Flags().Status)

	out = act(t, st, id, "done")
	assert.Equal(t, item.StageDone, out.To)
	assert.Equal(t, item.StatusDone, out.Item.Flags().Status)

	assert.Equal(t, []projection.Name{projection.NameDone}, viewsContaining(t, st, id))
}

func TestRestoreIsIdempotent(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Maybe later")

	out := act(t, st, id, "archive")
	assert.Equal(t, item.StageDiscarded, out.To)

	out = act(t, st, id, "restore")
	assert.True(t, out.Changed)
	assert.Equal(t, item.StageReview, out.To)
	rev := out.Item.Revision

	out = act(t, st, id, "restore")
	assert.True(t, out.Applied)
	assert.False(t, out.Changed)
	assert.Equal(t, rev, out.Item.Revision)
}

func TestMoveToReviewPreservesAssessment(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Evaluate vendor")
	act(t, st, id, "process")

	f := item.Factors{Reach: 10, Impact: 10, Confidence: 10, Effort: 2}
	out := prioritize(t, st, id, "professional", f)
	require.Equal(t, item.StageReEvaluate, out.To)

	out = act(t, st, id, "move-to-review")
	assert.Equal(t, item.StageReview, out.To)
	require.NotNil(t, out.Item.Assessment)
	assert.Equal(t, 500.0, out.Item.Assessment.FinalScore)
	assert.Equal(t, item.ModeProfessional, out.Item.Assessment.Mode)
	assert.Equal(t, f, out.Item.Assessment.Factors)
	assert.Contains(t, viewIDs(t, st, projection.NameReview), id)

	out = prioritize(t, st, id, "personal", item.Factors{Impact: 50, Confidence: 50, Effort: 5})
	assert.Equal(t, item.ModePersonal, out.Item.Assessment.Mode)
	assert.Equal(t, 500.0, out.Item.Assessment.FinalScore)
	assert.Equal(t, item.StageScheduled, out.To)
}

func TestTransitionErrors(t *testing.T) {
	st := store.New()
	cfg := config.DefaultConfig()
	ctx := context.Background()
	id := capture(t, st, "Inbox item")

	_, err := Transition(ctx, st, cfg, TransitionInput{ID: id, Action: "start"})
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition), "got %v", err)

	_, err = Transition(ctx, st, cfg, TransitionInput{ID: id, Action: "explode"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

	_, err = Transition(ctx, st, cfg, TransitionInput{ID: " ", Action: "process"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

	act(t, st, id, "process")
	tests := []struct {
		name    string
		mode    string
		factors item.Factors
	}{
		{"missing mode", "", item.Factors{Reach: 1, Impact: 1, Confidence: 1, Effort: 1}},
		{"bad mode", "work", item.Factors{Reach: 1, Impact: 1, Confidence: 1, Effort: 1}},
		{"impact zero", "personal", item.Factors{Impact: 0, Confidence: 1, Effort: 1}},
		{"effort too high", "personal", item.Factors{Impact: 1, Confidence: 1, Effort: 101}},
		{"reach missing in professional", "professional", item.Factors{Impact: 1, Confidence: 1, Effort: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transition(ctx, st, cfg, TransitionInput{ID: id, Action: "prioritize", Mode: tt.mode, Factors: tt.factors})
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}

	got, err := Get(st, GetInput{ID: id})
	require.NoError(t, err)
	assert.Equal(t, item.StageReview, got.Item.Stage)
	assert.False(t, got.Item.Scored())
}

func TestTransitionUnknownIDIsNoop(t *testing.T) {
	st := store.New()
	out := act(t, st, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "process")
	assert.False(t, out.Applied)
	assert.False(t, out.Changed)
	assert.Nil(t, out.Item)
}

func TestPersonalIgnoresReachRange(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Read a book")
	act(t, st, id, "process")
	out := prioritize(t, st, id, "personal", item.Factors{Reach: 500, Impact: 10, Confidence: 10, Effort: 2})
	assert.Equal(t, 50.0, out.Item.Assessment.FinalScore)
	assert.Equal(t, item.StageScheduled, out.To)

	stored, ok := st.Get(id)
	require.True(t, ok)
	assert.Equal(t, 0, stored.Assessment.Factors.Reach)
}

func TestCustomThresholds(t *testing.T) {
	st := store.New()
	cfg := config.DefaultConfig()
	cfg.Thresholds.Personal = &scoring.Table{
		Rules: []scoring.Rule{{MinScore: 100, Outcome: scoring.OutcomeSchedule}},
		Below: scoring.OutcomeDiscard,
	}
	id := capture(t, st, "Tune thresholds")
	act(t, st, id, "process")

	out, err := Transition(context.Background(), st, cfg, TransitionInput{
		ID: id, Action: "prioritize", Mode: "personal",
		Factors: item.Factors{Impact: 10, Confidence: 5, Effort: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, item.StageDiscarded, out.To)
}

func TestCreateValidation(t *testing.T) {
	st := store.New()
	ctx := context.Background()

	_, err := Create(ctx, st, CreateInput{Title: "   "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Create(ctx, st, CreateInput{Title: "x", Type: "Podcast"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Create(ctx, st, CreateInput{Title: "x", Certainty: ptr("maybe")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	out, err := Create(ctx, st, CreateInput{
		Title:     "  Watch talk ",
		Type:      "media",
		Tags:      []string{"video", "Video", "learning"},
		Certainty: ptr("uncertain"),
		Source:    "cli",
	})
	require.NoError(t, err)
	assert.Equal(t, "Watch talk", out.Item.Title)
	assert.Equal(t, item.TypeMedia, out.Item.Type)
	assert.Equal(t, []string{"video", "learning"}, out.Item.Tags)
	require.NotNil(t, out.Item.Certainty)
	assert.Equal(t, item.Uncertain, *out.Item.Certainty)
	assert.Equal(t, item.StageInbox, out.Item.Stage)
}

func TestGet(t *testing.T) {
	st := store.New()
	id := capture(t, st, "Look me up")

	out, err := Get(st, GetInput{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, out.Item.ID)
	assert.ElementsMatch(t, []string{"process", "archive"}, out.Actions)

	_, err = Get(st, GetInput{ID: "missing"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReplace(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	id := capture(t, st, "Original")

	got, err := Get(st, GetInput{ID: id})
	require.NoError(t, err)
	next := got.Item.Clone()
	next.Title = "Rewritten"
	next.Body = "new body"

	out, err := Replace(ctx, st, ReplaceInput{Item: next, ExpectedRevision: ptr(got.Item.Revision)})
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.Equal(t, "Rewritten", out.Item.Title)
	assert.Equal(t, got.Item.Revision+1, out.Item.Revision)

	_, err = Replace(ctx, st, ReplaceInput{Item: next, ExpectedRevision: ptr(got.Item.Revision)})
	assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

	ghost := next.Clone()
	ghost.ID = "01HZZZZZZZZZZZZZZZZZZZZZZZ"
	out, err = Replace(ctx, st, ReplaceInput{Item: ghost})
	require.NoError(t, err)
	assert.False(t, out.Updated)

	bad := next.Clone()
	bad.Stage = "limbo"
	_, err = Replace(ctx, st, ReplaceInput{Item: bad})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Replace(ctx, st, ReplaceInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestReplaceStoresCanonicalStage(t *testing.T) {
	ctx := context.Background()
	aliases := []struct {
		in   item.Stage
		want item.Stage
		view projection.Name
	}{
		{"bin", item.StageDiscarded, projection.NameDiscard},
		{"discard", item.StageDiscarded, projection.NameDiscard},
		{"reevaluate", item.StageReEvaluate, projection.NameReEvaluate},
		{"Scheduled", item.StageScheduled, projection.NameScheduled},
		{" review ", item.StageReview, projection.NameReview},
	}
	for _, tc := range aliases {
		t.Run(string(tc.in), func(t *testing.T) {
			st := store.New()
			id := capture(t, st, "Aliased")
			got, err := Get(st, GetInput{ID: id})
			require.NoError(t, err)

			next := got.Item.Clone()
			next.Stage = tc.in
			out, err := Replace(ctx, st, ReplaceInput{Item: next})
			require.NoError(t, err)
			require.True(t, out.Updated)
			assert.Equal(t, tc.want, out.Item.Stage)
			assert.Equal(t, []projection.Name{tc.view}, viewsContaining(t, st, id))
		})
	}
}

func TestEdit(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	id := capture(t, st, "Plan offsite")

	_, err := Edit(ctx, st, EditInput{ID: id, Project: ptr("Team")})
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition), "inbox items cannot be edited: %v", err)

	act(t, st, id, "process")

	_, err = Edit(ctx, st, EditInput{ID: id})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Edit(ctx, st, EditInput{ID: id, TaskCategory: ptr("someday")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	out, err := Edit(ctx, st, EditInput{
		ID:           id,
		Project:      ptr(" Team "),
		DueDate:      ptr("2026-05-01"),
		TaskCategory: ptr("maintain"),
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, item.StageReview, out.To)
	assert.Equal(t, "Team", *out.Item.Project)
	assert.Equal(t, "2026-05-01", *out.Item.DueDate)
	assert.Equal(t, item.TaskMaintain, *out.Item.TaskCategory)

	out, err = Edit(ctx, st, EditInput{ID: id, Project: ptr(""), TaskCategory: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, out.Item.Project)
	assert.Nil(t, out.Item.TaskCategory)
	assert.NotNil(t, out.Item.DueDate)
}

func TestDelete(t *testing.T) {
	st := store.New()
	ctx := context.Background()
	id := capture(t, st, "Temporary")

	out, err := Delete(ctx, st, DeleteInput{ID: id})
	require.NoError(t, err)
	assert.True(t, out.Deleted)

	out, err = Delete(ctx, st, DeleteInput{ID: id})
	require.NoError(t, err)
	assert.False(t, out.Deleted)

	_, err = Delete(ctx, st, DeleteInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestScoreAndClassifyPreview(t *testing.T) {
	cfg := config.DefaultConfig()

	out, err := Score(cfg, ScoreInput{Mode: "professional", Factors: item.Factors{Reach: 80, Impact: 70, Confidence: 60, Effort: 0}})
	require.NoError(t, err)
	assert.Equal(t, 336000.0, out.Score)
	assert.Equal(t, item.StageScheduled, out.Stage)

	tests := []struct {
		mode  string
		score float64
		stage item.Stage
	}{
		{"professional", 1000, item.StageScheduled},
		{"professional", 250, item.StageReEvaluate},
		{"professional", 249.999, item.StageDiscarded},
		{"personal", 50, item.StageScheduled},
		{"personal", 10, item.StageReEvaluate},
		{"personal", 9.99, item.StageDiscarded},
	}
	for _, tt := range tests {
		got, err := Classify(cfg, ClassifyInput{Mode: tt.mode, Score: tt.score})
		require.NoError(t, err)
		assert.Equal(t, tt.stage, got.Stage, "%s %v", tt.mode, tt.score)
	}

	_, err = Classify(cfg, ClassifyInput{Mode: "", Score: 1})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestNext(t *testing.T) {
	st := store.New()

	out, err := Next(st, NextInput{})
	require.NoError(t, err)
	assert.Nil(t, out.Item)

	low := capture(t, st, "Low")
	high := capture(t, st, "High")
	for _, id := range []string{low, high} {
		act(t, st, id, "process")
	}
	prioritize(t, st, low, "personal", item.Factors{Impact: 10, Confidence: 10, Effort: 1})
	prioritize(t, st, high, "professional", item.Factors{Reach: 100, Impact: 100, Confidence: 100, Effort: 1})

	out, err = Next(st, NextInput{})
	require.NoError(t, err)
	require.NotNil(t, out.Item)
	assert.Equal(t, high, out.Item.ID)
	assert.Equal(t, 1, out.Remaining)

	out, err = Next(st, NextInput{Mode: "personal"})
	require.NoError(t, err)
	assert.Equal(t, low, out.Item.ID)
}
