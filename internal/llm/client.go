package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsbrief/internal/logger"
)

// Options constrain one generation call.
type Options struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a prompt. Drafting and compliance Pass 2 both
// consume this interface.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (text, modelID string, err error)
}

// rate-limit retry ladder: initial attempt, then one wait per delay
var defaultRetryDelays = []time.Duration{15 * time.Second, 30 * time.Second}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client

	retryDelays []time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ Generator = (*Client)(nil)

// NewClient builds a generation client for the given endpoint and model.
func NewClient(endpoint, model, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint:    endpoint,
		model:       model,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		retryDelays: defaultRetryDelays,
		sleep:       sleepCtx,
	}
}

// Generate sends the prompt and returns the generated text plus the model
// identifier. Rate-limited calls are retried per the delay ladder; any other
// error is returned immediately.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", "", fmt.Errorf("generation client misconfigured")
	}

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		text, err := c.call(ctx, prompt, opts)
		if err == nil {
			return text, c.model, nil
		}
		if !isRateLimited(err) {
			return "", "", err
		}
		lastErr = err
		if attempt < len(c.retryDelays) {
			delay := c.retryDelays[attempt]
			logger.Warn("generation rate limited, backing off",
				"delay", delay.String(), "attempt", attempt+1)
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return "", "", sleepErr
			}
		}
	}
	logger.Error("generation rate limited on every attempt", "attempts", len(c.retryDelays)+1)
	return "", "", lastErr
}

func (c *Client) call(ctx context.Context, prompt string, opts Options) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(opts.System) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": opts.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	payload := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	if opts.Temperature > 0 {
		payload["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		payload["max_tokens"] = opts.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errRateLimited
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generation error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generation response had no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

var errRateLimited = fmt.Errorf("rate limited (429)")

func isRateLimited(err error) bool {
	return err == errRateLimited
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
