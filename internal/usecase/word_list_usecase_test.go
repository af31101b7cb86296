package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocsync/internal/entity"
)

func newTestWordList(t *testing.T) (WordListUsecase, *fakeStore, *fakeStore) {
	t.Helper()
	local, remote := newFakeStore("local"), newFakeRemote()
	m := newTestManager(t, local, remote, ManagerOptions{})
	bus := NewBroadcaster[*entity.WordItem]()
	t.Cleanup(m.Attach(bus))

	uc := NewWordListUsecase(bus, m)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	uc.(*wordListUsecase).clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}
	return uc, local, remote
}

func TestWordListAddWord(t *testing.T) {
	uc, local, remote := newTestWordList(t)
	ctx := context.Background()

	ok, err := uc.AddWord(ctx, word(" LAT", "mare", true, citation("a", "per ")))
	require.NoError(t, err)
	require.True(t, ok)

	for _, store := range []*fakeStore{local, remote} {
		got := store.get("lat", "mare")
		require.NotNil(t, got, store.name)
		assert.False(t, got.CreatedAt.IsZero(), "created timestamp stamped")
	}

	_, err = uc.AddWord(ctx, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidWordItem)
	_, err = uc.AddWord(ctx, &entity.WordItem{TargetWord: "mare"})
	assert.ErrorIs(t, err, entity.ErrInvalidWordItem)
}

func TestWordListAddWordKeepsCreatedAt(t *testing.T) {
	uc, local, _ := newTestWordList(t)
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	w := word("lat", "mare", false)
	w.CreatedAt = created

	_, err := uc.AddWord(context.Background(), w)
	require.NoError(t, err)
	assert.True(t, created.Equal(local.get("lat", "mare").CreatedAt))
}

func TestWordListListWords(t *testing.T) {
	uc, _, _ := newTestWordList(t)
	ctx := context.Background()
	for _, w := range []*entity.WordItem{
		word("lat", "mare", true),
		word("lat", "terra", false),
		word("lat", "magnus", true),
		word("grc", "θάλασσα", true),
	} {
		_, err := uc.AddWord(ctx, w)
		require.NoError(t, err)
	}

	got, err := uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"magnus", "terra", "mare"}, targetWords(got), "newest first by default")

	got, err = uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat" && important`, OrderBy: "word"})
	require.NoError(t, err)
	assert.Equal(t, []string{"magnus", "mare"}, targetWords(got))

	got, err = uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat" && word.startsWith("ma") && !important`, Mode: QueryLocal})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat" && word == "terra"`, Mode: QueryRemote})
	require.NoError(t, err)
	assert.Equal(t, []string{"terra"}, targetWords(got))

	got, err = uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat" && word in ["mare", "terra"]`, OrderBy: "important desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mare", "terra"}, targetWords(got))

	got, err = uc.ListWords(ctx, ListWordsQuery{Filter: `language == "lat" && created_at >= timestamp("2024-03-01T14:00:00Z")`, OrderBy: "created_at"})
	require.NoError(t, err)
	assert.Equal(t, []string{"terra", "magnus"}, targetWords(got))
}

func TestWordListListWordsRejectsBadFilters(t *testing.T) {
	uc, local, remote := newTestWordList(t)
	ctx := context.Background()

	for _, q := range []ListWordsQuery{
		{Filter: `important`},
		{Filter: `language == "lat" || important`},
		{Filter: `language == "lat"`, OrderBy: "lemma"},
	} {
		_, err := uc.ListWords(ctx, q)
		assert.ErrorIs(t, err, entity.ErrInvalidWordItem, q.Filter)
	}
	assert.Empty(t, local.callLog())
	assert.Empty(t, remote.callLog())
}

func TestWordListDelete(t *testing.T) {
	uc, local, remote := newTestWordList(t)
	ctx := context.Background()
	for _, w := range []string{"mare", "terra"} {
		_, err := uc.AddWord(ctx, word("lat", w, false))
		require.NoError(t, err)
	}

	ok, err := uc.DeleteWord(ctx, entity.Identity{PartitionKey: "LAT", LocalKey: " mare"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, local.get("lat", "mare"))
	assert.Nil(t, remote.get("lat", "mare"))

	ok, err = uc.DeleteList(ctx, "lat", WithOnlyRemote())
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, local.get("lat", "terra"))
	assert.Nil(t, remote.get("lat", "terra"))

	_, err = uc.DeleteList(ctx, " ")
	assert.ErrorIs(t, err, entity.ErrInvalidWordItem)
	_, err = uc.DeleteWord(ctx, entity.Identity{PartitionKey: "lat"})
	assert.ErrorIs(t, err, entity.ErrInvalidWordItem)
}

func TestWordListWithoutSubscribers(t *testing.T) {
	uc := NewWordListUsecase(NewBroadcaster[*entity.WordItem](), nil)
	ok, err := uc.AddWord(context.Background(), word("lat", "mare", true))
	assert.False(t, ok)
	assert.ErrorIs(t, err, errNoSubscribers)
}

func targetWords(items []*entity.WordItem) []string {
	out := make([]string, 0, len(items))
	for _, w := range items {
		out = append(out, w.TargetWord)
	}
	return out
}
