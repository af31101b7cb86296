package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
)

func serve(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newTestRouter() http.Handler {
	logger, _ := test.NewNullLogger()
	return NewRouter(docstore.NewMemory(), RouterOptions{
		Tokens: map[string]string{"t-alice": "alice", "t-bob": "bob"},
	}, logger)
}

func TestRouterRequiresToken(t *testing.T) {
	h := newTestRouter()
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, http.MethodGet, "/words?languageCode=lat", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, http.MethodGet, "/words?languageCode=lat", "nope", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/healthz", "", "").Code)
}

func TestRouterDocumentLifecycle(t *testing.T) {
	h := newTestRouter()
	doc := `{"ID":"lat-mare","languageCode":"lat","targetWord":"mare","important":false}`

	rec := serve(t, h, http.MethodPost, "/words/lat-mare", "t-alice", doc)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusConflict, serve(t, h, http.MethodPost, "/words/lat-mare", "t-alice", doc).Code)

	rec = serve(t, h, http.MethodPut, "/words/lat-mare", "t-alice", strings.Replace(doc, "false", "true", 1))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodGet, "/words/lat-mare", "t-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "important").Bool())

	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/words/lat-mare", "t-bob", "").Code)

	rec = serve(t, h, http.MethodGet, "/words?languageCode=lat", "t-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mare", gjson.Get(rec.Body.String(), "0.body.targetWord").String())

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodDelete, "/words/lat-mare", "t-alice", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodDelete, "/words/lat-mare", "t-alice", "").Code)
}

func TestRouterRejectsInvalidDocuments(t *testing.T) {
	h := newTestRouter()
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodPost, "/words/x", "t-alice", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodPost, "/words/x", "t-alice", `[1,2]`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodPost, "/words/x", "t-alice", `{"targetWord":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/words", "t-alice", "").Code)
}

func TestRouterDeletePartition(t *testing.T) {
	h := newTestRouter()
	for _, id := range []string{"lat-mare", "lat-terra"} {
		body := `{"languageCode":"lat","targetWord":"` + strings.TrimPrefix(id, "lat-") + `"}`
		require.Equal(t, http.StatusCreated, serve(t, h, http.MethodPost, "/words/"+id, "t-alice", body).Code)
	}
	rec := serve(t, h, http.MethodDelete, "/words?languageCode=lat", "t-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), gjson.Get(rec.Body.String(), "deleted").Int())

	rec = serve(t, h, http.MethodGet, "/words?languageCode=lat", "t-alice", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}
