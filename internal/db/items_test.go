package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

func openPersister(t *testing.T) *Persister {
	t.Helper()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewPersister(database)
}

func strp(s string) *string { return &s }

func TestPersister_SaveAndGet(t *testing.T) {
	p := openPersister(t)
	ctx := context.Background()

	tc := item.TaskMaintain
	cert := item.Uncertain
	in := &item.Item{
		ID:        "01SAVE",
		Type:      item.TypeIdea,
		Title:     "Refactor billing",
		Body:      "split the module",
		Tags:      []string{"work", "billing"},
		Source:    "cli",
		Stage:     item.StageScheduled,
		CreatedAt: 1000,
		UpdatedAt: 1100,
		Revision:  3,
		Assessment: &item.Assessment{
			Mode:       item.ModeProfessional,
			Factors:    item.Factors{Reach: 80, Impact: 70, Confidence: 60, Effort: 20},
			FinalScore: 16800,
		},
		Project:      strp("Billing"),
		DueDate:      strp("2024-05-01"),
		TaskCategory: &tc,
		Certainty:    &cert,
	}
	require.NoError(t, p.Save(ctx, in))

	got, err := p.Get(ctx, "01SAVE")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, got)
}

func TestPersister_SaveUnscoredHasNoAssessment(t *testing.T) {
	p := openPersister(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, &item.Item{ID: "01A", Type: item.TypeNote, Title: "n", Stage: item.StageInbox, CreatedAt: 1, UpdatedAt: 1, Revision: 1}))

	got, err := p.Get(ctx, "01A")
	require.NoError(t, err)
	assert.Nil(t, got.Assessment)
	assert.Nil(t, got.Tags)
	assert.Nil(t, got.Project)
}

func TestPersister_SaveUpserts(t *testing.T) {
	p := openPersister(t)
	ctx := context.Background()

	it := &item.Item{ID: "01A", Type: item.TypeTask, Title: "v1", Stage: item.StageInbox, CreatedAt: 1, UpdatedAt: 1, Revision: 1}
	require.NoError(t, p.Save(ctx, it))

	it.Title = "v2"
	it.Stage = item.StageReview
	it.Revision = 2
	require.NoError(t, p.Save(ctx, it))

	all, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "v2", all[0].Title)
	assert.Equal(t, item.StageReview, all[0].Stage)
	assert.Equal(t, int64(2), all[0].Revision)
}

func TestPersister_GetMissing(t *testing.T) {
	p := openPersister(t)
	got, err := p.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPersister_LoadOrderAndDelete(t *testing.T) {
	p := openPersister(t)
	ctx := context.Background()

	for i, id := range []string{"01A", "01B", "01C"} {
		require.NoError(t, p.Save(ctx, &item.Item{ID: id, Type: item.TypeTask, Title: id, Stage: item.StageInbox, CreatedAt: int64(i + 1), UpdatedAt: 1, Revision: 1}))
	}
	require.NoError(t, p.Delete(ctx, "01B"))
	require.NoError(t, p.Delete(ctx, "missing"))

	all, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "01C", all[0].ID)
	assert.Equal(t, "01A", all[1].ID)
}

func TestPersister_CountByStage(t *testing.T) {
	p := openPersister(t)
	ctx := context.Background()

	stages := []item.Stage{item.StageInbox, item.StageInbox, item.StageDone}
	for i, st := range stages {
		id := string(rune('A' + i))
		require.NoError(t, p.Save(ctx, &item.Item{ID: id, Type: item.TypeTask, Title: id, Stage: st, CreatedAt: 1, UpdatedAt: 1, Revision: 1}))
	}

	counts, err := p.CountByStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[item.StageInbox])
	assert.Equal(t, 1, counts[item.StageDone])
}

// The store survives a reopen when backed by SQLite.
func TestPersister_BacksStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	database, err := Init(dir)
	require.NoError(t, err)
	s, err := store.Open(ctx, NewPersister(database))
	require.NoError(t, err)

	first, err := s.Create(ctx, item.Draft{Title: "first"})
	require.NoError(t, err)
	second, err := s.Create(ctx, item.Draft{Title: "second", Tags: []string{"x"}})
	require.NoError(t, err)
	_, _, err = s.Modify(ctx, first.ID, func(cur *item.Item) (*item.Item, error) {
		cur.Stage = item.StageReview
		return cur, nil
	})
	require.NoError(t, err)
	database.Close()

	database, err = Init(dir)
	require.NoError(t, err)
	defer database.Close()
	reopened, err := store.Open(ctx, NewPersister(database))
	require.NoError(t, err)

	all := reopened.All()
	require.Len(t, all, 2)
	ids := map[string]*item.Item{all[0].ID: all[0], all[1].ID: all[1]}
	assert.Equal(t, item.StageReview, ids[first.ID].Stage)
	assert.Equal(t, []string{"x"}, ids[second.ID].Tags)
}
