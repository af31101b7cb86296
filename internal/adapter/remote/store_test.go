package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocsync/internal/adapter/codec"
	"github.com/eslsoft/vocsync/internal/adapter/httpapi"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
	"github.com/eslsoft/vocsync/internal/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	router := httpapi.NewRouter(docstore.NewMemory(), httpapi.RouterOptions{
		Tokens: map[string]string{"secret": "alice"},
	}, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, baseURL, token string) *Store[*entity.WordItem] {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewStore[*entity.WordItem](Options{
		BaseURL:    baseURL,
		Token:      token,
		UserID:     "alice",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}, codec.NewWordItemDocuments(), logger)
}

func sampleItem(word string) *entity.WordItem {
	item := entity.NewWordItem("lat", word)
	item.Important = true
	item.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	item.AddContext(entity.TextQuoteSelector{Source: "http://example.com/a", Exact: word, Prefix: "per ", Suffix: " magnum"})
	item.Homonym = entity.NewShortHomonym(word, word)
	return item
}

func TestStoreAvailability(t *testing.T) {
	assert.False(t, newTestStore(t, "http://example.com", "").Available())
	assert.False(t, newTestStore(t, "", "secret").Available())
	assert.True(t, newTestStore(t, "http://example.com", "secret").Available())

	unavailable := newTestStore(t, "", "")
	err := unavailable.Create(context.Background(), sampleItem("mare"))
	require.ErrorIs(t, err, entity.ErrBackendUnavailable)
}

func TestStoreWithoutBaseURLRecordsUnavailable(t *testing.T) {
	ctx := context.Background()
	for _, baseURL := range []string{"", "not a url"} {
		store := newTestStore(t, baseURL, "secret")
		item := sampleItem("mare")

		assert.ErrorIs(t, store.Create(ctx, item), entity.ErrBackendUnavailable, baseURL)
		assert.ErrorIs(t, store.Update(ctx, item), entity.ErrBackendUnavailable, baseURL)
		assert.ErrorIs(t, store.DeleteOne(ctx, item.Identity()), entity.ErrBackendUnavailable, baseURL)
		_, err := store.DeleteMany(ctx, "lat")
		assert.ErrorIs(t, err, entity.ErrBackendUnavailable, baseURL)
		_, err = store.Query(ctx, repository.ByIdentity(item.Identity()))
		assert.ErrorIs(t, err, entity.ErrBackendUnavailable, baseURL)
		_, err = store.Query(ctx, repository.ByPartition("lat"))
		assert.ErrorIs(t, err, entity.ErrBackendUnavailable, baseURL)

		assert.Len(t, store.Errors(), 6, baseURL)
	}
}

func TestStoreCreateQueryUpdate(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	store := newTestStore(t, srv.URL, "secret")
	item := sampleItem("mare")

	require.NoError(t, store.Create(ctx, item))
	require.ErrorIs(t, store.Create(ctx, item), entity.ErrBackendUnreachable, "second create conflicts")

	got, err := store.Query(ctx, repository.ByIdentity(item.Identity()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, item.Identity(), got[0].Identity())
	assert.True(t, got[0].Important)
	assert.Equal(t, item.Context, got[0].Context)
	assert.Equal(t, "mare", got[0].LemmasList())
	assert.Equal(t, item.CreatedAt, got[0].CreatedAt)

	changed := item.Clone()
	changed.Important = false
	require.NoError(t, store.Update(ctx, changed))

	got, err = store.Query(ctx, repository.ByIdentity(item.Identity()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Important)
}

func TestStoreQueryPartitionAndDelete(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	store := newTestStore(t, srv.URL, "secret")

	require.NoError(t, store.Create(ctx, sampleItem("mare")))
	require.NoError(t, store.Create(ctx, sampleItem("terra")))
	grc := entity.NewWordItem("grc", "θάλασσα")
	require.NoError(t, store.Create(ctx, grc))

	got, err := store.Query(ctx, repository.ByPartition("lat"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"mare", "terra"}, []string{got[0].TargetWord, got[1].TargetWord})

	require.NoError(t, store.DeleteOne(ctx, entity.NewIdentity("lat", "mare")))
	require.NoError(t, store.DeleteOne(ctx, entity.NewIdentity("lat", "mare")), "missing document is a no-op")

	missing, err := store.Query(ctx, repository.ByIdentity(entity.NewIdentity("lat", "mare")))
	require.NoError(t, err)
	assert.Empty(t, missing)

	n, err := store.DeleteMany(ctx, "lat")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = store.Query(ctx, repository.ByPartition("lat"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.Query(ctx, repository.ByIdentity(grc.Identity()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "θάλασσα", got[0].TargetWord)
	assert.Empty(t, store.Errors())
}

func TestStoreRecordsAuthFailures(t *testing.T) {
	srv := newTestServer(t)
	store := newTestStore(t, srv.URL, "wrong")

	_, err := store.Query(context.Background(), repository.ByPartition("lat"))
	require.ErrorIs(t, err, entity.ErrBackendUnreachable)

	errs := store.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, StoreName, errs[0].Store)
	assert.Equal(t, "query", errs[0].Op)
	assert.Contains(t, errs[0].Error(), "401")
}
