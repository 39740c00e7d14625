package snippets

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	testingutil "github.com/neoyipeng2018/central-bank-tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*Repository, *clockwork.FakeClock) {
	t.Helper()
	db, cleanup := testingutil.NewTestDB(t, "snippets")
	t.Cleanup(cleanup)

	clock := clockwork.NewFakeClockAt(start)
	return NewRepository(db.Conn(), clock, zerolog.New(nil).Level(zerolog.Disabled)), clock
}

func TestRepository_AddDeduplicates(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	s := Snippet{ParticipantID: "powell", Title: "Powell speaks", Body: "raise rates", URL: "https://a"}
	added, err := repo.Add(ctx, s)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, s)
	require.NoError(t, err)
	assert.False(t, added, "same participant, url and title")

	s.Title = "Powell speaks again"
	added, err = repo.Add(ctx, s)
	require.NoError(t, err)
	assert.True(t, added)

	_, err = repo.Add(ctx, Snippet{Title: "orphan"})
	assert.Error(t, err)
}

func TestRepository_AddBatchAndList(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()

	published := start.Add(-48 * time.Hour)
	added, err := repo.AddBatch(ctx, []Snippet{
		{ParticipantID: "waller", Title: "one", URL: "u1", PublishedAt: &published},
		{ParticipantID: "waller", Title: "one", URL: "u1"},
		{ParticipantID: "cook", Title: "two", URL: "u2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	clock.Advance(24 * time.Hour)
	_, err = repo.Add(ctx, Snippet{ParticipantID: "waller", Title: "three", URL: "u3"})
	require.NoError(t, err)

	all, err := repo.ListForParticipant(ctx, "waller", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "one", all[0].Title)
	require.NotNil(t, all[0].PublishedAt)
	assert.True(t, published.Equal(*all[0].PublishedAt))
	assert.True(t, start.Equal(all[0].FetchedAt))

	recent, err := repo.ListForParticipant(ctx, "waller", start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "three", recent[0].Title)

	counts, err := repo.CountByParticipant(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"waller": 2, "cook": 1}, counts)
}

func TestRepository_AddBatchIsAtomic(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.AddBatch(ctx, []Snippet{
		{ParticipantID: "powell", Title: "ok"},
		{Title: "missing participant"},
	})
	assert.Error(t, err)

	items, err := repo.ListForParticipant(ctx, "powell", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, Snippet{ParticipantID: "daly", Title: "old"})
	require.NoError(t, err)
	clock.Advance(10 * 24 * time.Hour)
	_, err = repo.Add(ctx, Snippet{ParticipantID: "daly", Title: "new"})
	require.NoError(t, err)

	n, err := repo.DeleteOlderThan(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err := repo.ListForParticipant(ctx, "daly", time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].Title)
}

func TestDocuments(t *testing.T) {
	docs := Documents([]Snippet{
		{Title: "Title", Body: "body", URL: "https://example.com/a", Source: "news"},
		{Body: "body"},
		{},
	})
	require.Len(t, docs, 3)
	assert.Equal(t, "Title body", docs[0].Text())
	assert.Equal(t, "https://example.com/a", docs[0].URL)
	assert.Equal(t, "news", docs[0].Source)
	assert.Equal(t, "body", docs[1].Text())
	assert.Equal(t, "", docs[2].Text())
}
