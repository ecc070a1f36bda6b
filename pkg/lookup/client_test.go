package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geolit/geolit/pkg/models"
)

func newSearchServer(t *testing.T, body string) (*httptest.Server, *int) {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLookupPreservesRanking(t *testing.T) {
	srv, _ := newSearchServer(t, `{
		"docs": [
			{"resource": ["http://fr.dbpedia.org/resource/Paris"], "label": ["Paris"]},
			{"resource": ["http://fr.dbpedia.org/resource/Paris_(Texas)"], "label": ["Paris (Texas)"]}
		]
	}`)

	client := NewClient(srv.URL, nil)
	candidates, err := client.Lookup(context.Background(), "Paris")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "http://fr.dbpedia.org/resource/Paris", candidates[0].Resource)
	assert.Equal(t, "Paris", candidates[0].Label)
	assert.Equal(t, "http://fr.dbpedia.org/resource/Paris_(Texas)", candidates[1].Resource)
}

func TestLookupQueryIsEscaped(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "JSON", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"docs": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Lookup(context.Background(), "Aix-en-Provence & environs")
	require.NoError(t, err)
	assert.Equal(t, "Aix-en-Provence & environs", gotQuery)
}

func TestLookupEmptyResultIsNotAnError(t *testing.T) {
	srv, _ := newSearchServer(t, `{"docs": []}`)

	client := NewClient(srv.URL, nil)
	candidates, err := client.Lookup(context.Background(), "Atlantide")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestLookupSkipsDocsWithoutResource(t *testing.T) {
	srv, _ := newSearchServer(t, `{
		"docs": [
			{"label": ["orphan"]},
			{"resource": ["http://fr.dbpedia.org/resource/Lyon"], "label": ["Lyon"]}
		]
	}`)

	client := NewClient(srv.URL, nil)
	candidates, err := client.Lookup(context.Background(), "Lyon")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "http://fr.dbpedia.org/resource/Lyon", candidates[0].Resource)
}

func TestLookupTransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Lookup(context.Background(), "Paris")
	assert.Error(t, err, "an HTTP failure must not be treated as no results")
}

func TestLookupRejectsEmptyToponym(t *testing.T) {
	client := NewClient("http://example.invalid", nil)
	_, err := client.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestTop1(t *testing.T) {
	srv, _ := newSearchServer(t, `{
		"docs": [
			{"resource": ["http://fr.dbpedia.org/resource/Marseille"]},
			{"resource": ["http://fr.dbpedia.org/resource/Marseille_(homonymie)"]}
		]
	}`)

	client := NewClient(srv.URL, nil)
	top, err := client.Top1(context.Background(), "Marseille")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "http://fr.dbpedia.org/resource/Marseille", top.Resource)
}

func TestTop1AbsentOnEmptyResult(t *testing.T) {
	srv, _ := newSearchServer(t, `{"docs": []}`)

	client := NewClient(srv.URL, nil)
	top, err := client.Top1(context.Background(), "Atlantide")
	require.NoError(t, err)
	assert.Nil(t, top)
}
