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

var fredSeries = []struct {
	ID    string
	Label string
}{
	{"FEDFUNDS", "Fed Funds Rate"},
	{"DGS10", "10-Year Treasury Yield"},
	{"CPIAUCSL", "CPI"},
}

// FredProvider reads the latest observation per tracked series from the
// Federal Reserve Economic Data API.
type FredProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries int
}

func NewFredProvider(baseURL, apiKey string, timeout time.Duration, retries int) *FredProvider {
	return &FredProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

func (p *FredProvider) Name() string { return "fred" }

func (p *FredProvider) Fetch(ctx context.Context, req Request) ([]domain.Article, error) {
	type result struct {
		article *domain.Article
		err     error
	}
	results := make([]result, len(fredSeries))

	var wg sync.WaitGroup
	for i, s := range fredSeries {
		wg.Add(1)
		go func(i int, seriesID, label string) {
			defer wg.Done()
			article, err := p.fetchSeries(ctx, req, seriesID, label)
			results[i] = result{article: article, err: err}
		}(i, s.ID, s.Label)
	}
	wg.Wait()

	var articles []domain.Article
	failed := 0
	for i, res := range results {
		if res.err != nil {
			failed++
			logger.Error("macro series fetch failed", "series", fredSeries[i].ID, "error", res.err)
			continue
		}
		if res.article != nil {
			articles = append(articles, *res.article)
		}
	}
	if failed == len(fredSeries) {
		return nil, fmt.Errorf("all %d macro series failed", failed)
	}
	return articles, nil
}

func (p *FredProvider) fetchSeries(ctx context.Context, req Request, seriesID, label string) (*domain.Article, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", p.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "1")
	endpoint := p.baseURL + "/fred/series/observations?" + params.Encode()

	resp, err := doJSON(p.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, p.retries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Observations) == 0 {
		return nil, nil
	}

	obs := parsed.Observations[0]
	value := obs.Value
	if value == "" {
		value = "N/A"
	}
	date := obs.Date
	if date == "" {
		date = "unknown"
	}

	// CPI is an index level, not a percentage.
	title := fmt.Sprintf("%s: %s%% (%s)", label, value, date)
	if seriesID == "CPIAUCSL" {
		title = fmt.Sprintf("%s: %s (%s)", label, value, date)
	}

	return &domain.Article{
		ID:          uuid.New().String(),
		EditionID:   req.EditionID,
		Title:       title,
		URL:         "https://fred.stlouisfed.org/series/" + seriesID,
		Provider:    p.Name(),
		Tier:        1,
		Category:    domain.CategoryMacro,
		LinkValid:   true,
		RawSnippet:  fmt.Sprintf("%s (%s): %s as of %s. Source: Federal Reserve Economic Data.", label, seriesID, value, date),
		RetrievedAt: time.Now().UTC(),
	}, nil
}
