package source

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
)

// Provider fetches candidate articles from one external source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Article, error)
}

// Request carries the parameters of one retrieval run.
type Request struct {
	EditionID string
	Window    time.Duration
}

// Failure records a provider that returned no usable result.
type Failure struct {
	Provider string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("source %s: %v", f.Provider, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Registry holds the configured providers in a stable order.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry over the given providers. Providers with
// missing credentials should not be registered at all; the pipeline treats an
// empty registry as a degraded but valid retrieval.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// FetchAll runs every provider concurrently and merges results. A provider
// failure never aborts the run; it is reported alongside whatever the other
// providers returned.
func (r *Registry) FetchAll(ctx context.Context, req Request) ([]domain.Article, []Failure) {
	type outcome struct {
		provider string
		articles []domain.Article
		err      error
	}

	results := make([]outcome, len(r.providers))
	var wg sync.WaitGroup
	for i, p := range r.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			articles, err := p.Fetch(ctx, req)
			results[i] = outcome{provider: p.Name(), articles: articles, err: err}
		}(i, p)
	}
	wg.Wait()

	var all []domain.Article
	var failures []Failure
	for _, res := range results {
		if res.err != nil {
			logger.Error("source fetch failed", "provider", res.provider, "error", res.err)
			failures = append(failures, Failure{Provider: res.provider, Err: res.err})
			continue
		}
		logger.Info("source fetch completed", "provider", res.provider, "articles", len(res.articles))
		all = append(all, res.articles...)
	}
	return all, failures
}

// doJSON issues the request, retrying on transport errors and 5xx responses
// up to the allowed retry count. The request is rebuilt per attempt so bodies
// are never replayed from a consumed reader. The response body is left open
// for the caller.
func doJSON(client *http.Client, build func() (*http.Request, error), retries int) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
