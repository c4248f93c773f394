package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
)

// researchQueries pairs each research prompt with the category its results
// feed into.
var researchQueries = []struct {
	Query    string
	Category domain.Category
}{
	{"Recent GCC sovereign wealth fund real estate investments and deals 2026", domain.CategoryRegional},
	{"LATAM institutional real estate capital flows Mexico Colombia 2026", domain.CategoryRegional},
	{"US commercial real estate market conditions cap rates multifamily industrial 2026", domain.CategoryMacro},
	{"Cross-border real estate fund launches LP GP allocations 2026", domain.CategoryDeals},
	{"CFIUS real estate regulation SEC FINRA compliance updates 2026", domain.CategoryRegulatory},
}

const researchSystemPrompt = "You are a financial research assistant. Return a list of recent news " +
	"articles, reports, or data points about the topic. For each item, " +
	"provide the title, source URL if available, and a brief summary. " +
	"Format as a numbered list."

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s\)\]\>,"']+`)
	numberedItemRE  = regexp.MustCompile(`\n\s*\d+[\.\)]\s+`)
	bulletItemRE    = regexp.MustCompile(`\n\s*[\-\*\x{2022}]\s+`)
	markdownLinkRE  = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	markdownBoldRE  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// ResearchProvider queries an LLM-backed research API that answers with
// free-form text lists rather than structured results.
type ResearchProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	retries int
}

// NewResearchProvider builds a research provider against the given base URL.
func NewResearchProvider(baseURL, apiKey string, timeout time.Duration, retries int) *ResearchProvider {
	return &ResearchProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   "sonar",
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

func (p *ResearchProvider) Name() string { return "research" }

// Fetch runs every research query concurrently and merges whatever parsed.
// Individual query failures are logged and skipped; Fetch fails only when
// every query failed.
func (p *ResearchProvider) Fetch(ctx context.Context, req Request) ([]domain.Article, error) {
	type result struct {
		articles []domain.Article
		err      error
	}
	results := make([]result, len(researchQueries))

	var wg sync.WaitGroup
	for i, q := range researchQueries {
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
			logger.Error("research query failed", "query", researchQueries[i].Query, "error", res.err)
			continue
		}
		articles = append(articles, res.articles...)
	}
	if failed == len(researchQueries) {
		return nil, fmt.Errorf("all %d research queries failed", failed)
	}
	return articles, nil
}

func (p *ResearchProvider) runQuery(ctx context.Context, req Request, query string, category domain.Category) ([]domain.Article, error) {
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": researchSystemPrompt},
			{"role": "user", "content": query},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := doJSON(p.client, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	}, p.retries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, nil
	}

	return p.parseListing(parsed.Choices[0].Message.Content, req, query, category), nil
}

// parseListing splits a free-form research answer into articles, trying
// numbered lists, then bullets, then blank-line paragraphs. The raw text is
// never discarded: when nothing splits, the whole answer becomes one article.
func (p *ResearchProvider) parseListing(text string, req Request, query string, category domain.Category) []domain.Article {
	items := numberedItemRE.Split("\n"+text, -1)
	if len(items) > 1 {
		items = items[1:]
	} else {
		items = bulletItemRE.Split("\n"+text, -1)
		if len(items) > 1 {
			items = items[1:]
		} else {
			items = nil
			for _, para := range strings.Split(text, "\n\n") {
				if strings.TrimSpace(para) != "" {
					items = append(items, para)
				}
			}
		}
	}

	now := time.Now().UTC()
	var articles []domain.Article
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		url := ""
		if match := urlPattern.FindString(item); match != "" {
			url = strings.TrimRight(match, ".)")
		}

		title := strings.SplitN(item, "\n", 2)[0]
		title = markdownLinkRE.ReplaceAllString(title, "$1")
		title = markdownBoldRE.ReplaceAllString(title, "$1")
		title = strings.Trim(title, "* -#")
		if len(title) > 200 {
			title = title[:197] + "..."
		}
		if title == "" {
			title = truncate(query, 200)
		}

		articles = append(articles, domain.Article{
			ID:          uuid.New().String(),
			EditionID:   req.EditionID,
			Title:       title,
			URL:         url,
			Provider:    p.Name(),
			Tier:        3,
			Category:    category,
			LinkValid:   true,
			RawSnippet:  truncate(item, 2000),
			RetrievedAt: now,
		})
	}

	if len(articles) == 0 {
		articles = append(articles, domain.Article{
			ID:          uuid.New().String(),
			EditionID:   req.EditionID,
			Title:       truncate(query, 200),
			Provider:    p.Name(),
			Tier:        3,
			Category:    category,
			LinkValid:   true,
			RawSnippet:  truncate(text, 2000),
			RetrievedAt: now,
		})
	}
	return articles
}
