package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
)

const edgarUserAgent = "NewsBrief/1.0 (ops@newsbrief.example)"

// EdgarProvider searches SEC EDGAR full-text search for recent real estate
// filings. EDGAR needs no credentials, only a descriptive User-Agent.
type EdgarProvider struct {
	baseURL string
	client  *http.Client
	retries int
}

func NewEdgarProvider(baseURL string, timeout time.Duration, retries int) *EdgarProvider {
	return &EdgarProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

func (p *EdgarProvider) Name() string { return "edgar" }

func (p *EdgarProvider) Fetch(ctx context.Context, req Request) ([]domain.Article, error) {
	window := req.Window
	if window <= 0 {
		window = 14 * 24 * time.Hour
	}
	now := time.Now().UTC()
	endpoint := fmt.Sprintf(
		`%s/LATEST/search?q=%%22real+estate%%22&dateRange=custom&startdt=%s&enddt=%s&forms=D,8-K,S-11`,
		p.baseURL,
		now.Add(-window).Format("2006-01-02"),
		now.Format("2006-01-02"),
	)

	resp, err := doJSON(p.client, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("User-Agent", edgarUserAgent)
		httpReq.Header.Set("Accept", "application/json")
		return httpReq, nil
	}, p.retries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	filings := extractFilings(data)
	if filings == nil {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		logger.Warn("unrecognized filing search response", "keys", keys)
		return nil, nil
	}

	articles := make([]domain.Article, 0, len(filings))
	for _, filing := range filings {
		if a, ok := p.filingArticle(filing, req.EditionID, now); ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// extractFilings locates the filing list inside one of the response shapes
// the full-text search API has been observed to use.
func extractFilings(data map[string]json.RawMessage) []map[string]any {
	if raw, ok := data["hits"]; ok {
		var nested struct {
			Hits []map[string]any `json:"hits"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Hits != nil {
			return nested.Hits
		}
		var flat []map[string]any
		if err := json.Unmarshal(raw, &flat); err == nil {
			return flat
		}
	}
	for _, key := range []string{"filings", "results", "data"} {
		if raw, ok := data[key]; ok {
			var list []map[string]any
			if err := json.Unmarshal(raw, &list); err == nil {
				return list
			}
		}
	}
	return nil
}

func (p *EdgarProvider) filingArticle(filing map[string]any, editionID string, now time.Time) (domain.Article, bool) {
	src := filing
	if nested, ok := filing["_source"].(map[string]any); ok {
		src = nested
	}

	title := "SEC Filing"
	if names, ok := src["display_names"].([]any); ok && len(names) > 0 {
		if s, ok := names[0].(string); ok && s != "" {
			title = s
		}
	} else {
		for _, key := range []string{"entity_name", "display_name", "title", "file_description"} {
			if s, ok := src[key].(string); ok && s != "" {
				title = s
				break
			}
		}
	}

	formType := stringField(src, "form_type", "forms")
	fileDate := stringField(src, "file_date", "date_filed")
	fileNum, _ := src["file_num"].(string)

	filingURL := "https://www.sec.gov/cgi-bin/browse-edgar"
	if id, ok := filing["_id"].(string); ok && id != "" {
		filingURL = fmt.Sprintf(
			"https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&filenum=%s&type=&dateb=&owner=include&count=10", id)
	}

	display := title
	if formType != "" {
		display = formType + ": " + title
	}
	if fileDate != "" {
		display += " (" + fileDate + ")"
	}

	return domain.Article{
		ID:          uuid.New().String(),
		EditionID:   editionID,
		Title:       truncate(display, 200),
		URL:         filingURL,
		Provider:    p.Name(),
		Tier:        1,
		Category:    domain.CategoryRegulatory,
		LinkValid:   true,
		RawSnippet:  truncate(fmt.Sprintf("Form %s filed %s. File number: %s.", formType, fileDate, fileNum), 2000),
		RetrievedAt: now,
	}, true
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
