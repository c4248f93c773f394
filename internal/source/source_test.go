package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/domain"
)

func TestResearchProvider_Fetch_NumberedList(t *testing.T) {
	content := "Here are recent items:\n" +
		"1. **Gulf fund backs US logistics portfolio**\nhttps://example.com/a1\nA sovereign fund acquired warehouses.\n" +
		"2. [Cap rates hold steady](https://example.com/a2)\nMultifamily pricing stabilized.\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
	defer server.Close()

	provider := NewResearchProvider(server.URL, "test-key", 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-1"})
	require.NoError(t, err)

	// Five queries hit the same stub, each parsing two items.
	require.Len(t, articles, 10)
	byTitle := map[string]domain.Article{}
	for _, a := range articles {
		byTitle[a.Title] = a
	}
	first, ok := byTitle["Gulf fund backs US logistics portfolio"]
	require.True(t, ok, "markdown bold should be stripped from titles")
	assert.Equal(t, "https://example.com/a1", first.URL)
	assert.Equal(t, "research", first.Provider)
	assert.Equal(t, 3, first.Tier)
	assert.Equal(t, "ed-1", first.EditionID)

	second, ok := byTitle["Cap rates hold steady"]
	require.True(t, ok, "markdown links should be reduced to their text")
	assert.Equal(t, "https://example.com/a2", second.URL)
}

func TestResearchProvider_Fetch_UnparseableKeepsWholeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"single blob of prose with no list structure"}}]}`)
	}))
	defer server.Close()

	provider := NewResearchProvider(server.URL, "k", 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-1"})
	require.NoError(t, err)
	require.Len(t, articles, len(researchQueries))
	for _, a := range articles {
		assert.Equal(t, "single blob of prose with no list structure", a.RawSnippet)
		assert.NotEmpty(t, a.Title)
	}
}

func TestResearchProvider_Fetch_AllQueriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewResearchProvider(server.URL, "bad-key", 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-1"})
	assert.Error(t, err)
	assert.Empty(t, articles)
}

func TestSerpNewsProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_news", r.URL.Query().Get("engine"))
		assert.Equal(t, "serp-key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"news_results":[
			{"title":"Fund closes $2B vehicle","link":"https://example.com/n1","snippet":"A large close."},
			{"title":"","link":"https://example.com/skip"},
			{"title":"Cap rate survey out","link":"https://example.com/n2","snippet":"Survey details."}
		]}`)
	}))
	defer server.Close()

	provider := NewSerpNewsProvider(server.URL, "serp-key", 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-2"})
	require.NoError(t, err)

	// Four queries, two titled results each; untitled entries are dropped.
	require.Len(t, articles, 8)
	assert.Equal(t, "serpapi", articles[0].Provider)
	assert.Equal(t, 3, articles[0].Tier)
}

func TestEdgarProvider_Fetch_ElasticsearchShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "forms=D,8-K,S-11")
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"hits":{"hits":[
			{"_id":"021-12345","_source":{"display_names":["Acme REIT LP"],"form_type":"D","file_date":"2026-08-20","file_num":"021-12345"}}
		]}}`)
	}))
	defer server.Close()

	provider := NewEdgarProvider(server.URL, 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-3", Window: 14 * 24 * time.Hour})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "edgar", a.Provider)
	assert.Equal(t, 1, a.Tier)
	assert.Equal(t, domain.CategoryRegulatory, a.Category)
	assert.Equal(t, "D: Acme REIT LP (2026-08-20)", a.Title)
	assert.Contains(t, a.URL, "filenum=021-12345")
}

func TestEdgarProvider_Fetch_UnrecognizedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":{"nested":true}}`)
	}))
	defer server.Close()

	provider := NewEdgarProvider(server.URL, 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-3"})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFredProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		series := r.URL.Query().Get("series_id")
		assert.Equal(t, "fred-key", r.URL.Query().Get("api_key"))
		fmt.Fprintf(w, `{"observations":[{"date":"2026-08-28","value":"4.33"}],"series":%q}`, series)
	}))
	defer server.Close()

	provider := NewFredProvider(server.URL, "fred-key", 5*time.Second, 0)
	articles, err := provider.Fetch(context.Background(), Request{EditionID: "ed-4"})
	require.NoError(t, err)
	require.Len(t, articles, 3)

	titles := map[string]bool{}
	for _, a := range articles {
		titles[a.Title] = true
		assert.Equal(t, 1, a.Tier)
		assert.Equal(t, domain.CategoryMacro, a.Category)
	}
	assert.True(t, titles["Fed Funds Rate: 4.33% (2026-08-28)"])
	assert.True(t, titles["CPI: 4.33 (2026-08-28)"], "CPI is an index, not a rate")
}

type stubProvider struct {
	name     string
	articles []domain.Article
	err      error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, req Request) ([]domain.Article, error) {
	return s.articles, s.err
}

func TestRegistry_FetchAll_PartialFailure(t *testing.T) {
	ok := &stubProvider{name: "good", articles: []domain.Article{{ID: "a1", Title: "x"}}}
	bad := &stubProvider{name: "bad", err: errors.New("boom")}

	registry := NewRegistry(ok, bad)
	articles, failures := registry.FetchAll(context.Background(), Request{EditionID: "ed-5"})

	require.Len(t, articles, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad", failures[0].Provider)
	assert.Contains(t, failures[0].Error(), "boom")
	assert.ErrorIs(t, failures[0], bad.err)
}

func TestRegistry_FetchAll_Empty(t *testing.T) {
	registry := NewRegistry()
	articles, failures := registry.FetchAll(context.Background(), Request{EditionID: "ed-6"})
	assert.Empty(t, articles)
	assert.Empty(t, failures)
	assert.Equal(t, 0, registry.Len())
}

func TestDoJSON_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := &http.Client{Timeout: time.Second}
	resp, err := doJSON(client, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	}, 1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), calls.Load())
}
