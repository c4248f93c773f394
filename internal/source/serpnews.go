package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
)

var serpQueries = []struct {
	Query    string
	Category domain.Category
}{
	{"cross-border real estate investment 2026", domain.CategoryDeals},
	{"GCC sovereign wealth fund real estate", domain.CategoryRegional},
	{"LATAM real estate fund institutional", domain.CategoryRegional},
	{"US commercial real estate market", domain.CategoryMacro},
}

// SerpNewsProvider pulls Google News results through a SerpAPI-compatible
// search endpoint.
type SerpNewsProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries int
}

func NewSerpNewsProvider(baseURL, apiKey string, timeout time.Duration, retries int) *SerpNewsProvider {
	return &SerpNewsProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

func (p *SerpNewsProvider) Name() string { return "serpapi" }

func (p *SerpNewsProvider) Fetch(ctx context.Context, req Request) ([]domain.Article, error) {
	type result struct {
		articles []domain.Article
		err      error
	}
	results := make([]result, len(serpQueries))

	var wg sync.WaitGroup
	for i, q := range serpQueries {
		wg.Add(1)
		go func(i int, query string, category domain.Category) {
			defer wg.Done()
			articles, err := p.runQuery(ctx, req, query, category)
			results[i] = result{articles: articles, err: err}
		}(i, q.Query, q.Category)
	}
	wg.Wait()

	var articles []domain.Article
	failed := 0
	for i, res := range results {
		if res.err != nil {
			failed++
			logger.Error("news search failed", "query", serpQueries[i].Query, "error", res.err)
			continue
		}
		articles = append(articles, res.articles...)
	}
	if failed == len(serpQueries) {
		return nil, fmt.Errorf("all %d news searches failed", failed)
	}
	return articles, nil
}

func (p *SerpNewsProvider) runQuery(ctx context.Context, req Request, query string, category domain.Category) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("api_key", p.apiKey)
	endpoint := p.baseURL + "/search?" + params.Encode()

	resp, err := doJSON(p.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, p.retries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed struct {
		NewsResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"news_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now().UTC()
	var articles []domain.Article
	for _, item := range parsed.NewsResults {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		articles = append(articles, domain.Article{
			ID:          uuid.New().String(),
			EditionID:   req.EditionID,
			Title:       truncate(title, 200),
			URL:         item.Link,
			Provider:    p.Name(),
			Tier:        3,
			Category:    category,
			LinkValid:   true,
			RawSnippet:  truncate(item.Snippet, 2000),
			RetrievedAt: now,
		})
	}
	return articles, nil
}
