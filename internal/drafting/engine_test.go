package drafting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/domain"
	"newsbrief/internal/llm"
)

// fakeGenerator records prompts and answers from a canned script.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	systems []string
	reply   string
	err     error
	failFor string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, opts.System)
	f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	if f.failFor != "" && strings.Contains(prompt, f.failFor) {
		return "", "", errors.New("service unavailable")
	}
	return f.reply, "test-model", nil
}

func rankedArticles() []domain.Article {
	return []domain.Article{
		{Title: "Fed holds", Provider: "fred", Tier: 1, Category: domain.CategoryMacro, Quality: 0.9, RawSnippet: "rates steady"},
		{Title: "GCC fund in Mexico", Provider: "serpapi", Tier: 2, Category: domain.CategoryRegional, Quality: 0.7, URL: "https://example.com/1"},
		{Title: "Fund close", Provider: "research", Tier: 3, Category: domain.CategoryDeals, Quality: 0.5},
		{Title: "CFIUS update", Provider: "edgar", Tier: 1, Category: domain.CategoryRegulatory, Quality: 0.8},
		{Title: "Dup story", Provider: "serpapi", Tier: 3, Category: domain.CategoryRegional, Quality: 0, Duplicate: true},
	}
}

func TestEngine_Run_AllSections(t *testing.T) {
	gen := &fakeGenerator{reply: strings.Repeat("word ", 280)}
	engine := NewEngine(gen, 2)

	drafts := engine.Run(context.Background(), "ed-1", rankedArticles(), "")
	require.Len(t, drafts, len(domain.SectionOrder))

	bySection := map[string]domain.SectionDraft{}
	for _, d := range drafts {
		bySection[d.Section] = d
		assert.Equal(t, "ed-1", d.EditionID)
		assert.NotEmpty(t, d.ID)
	}

	perspective := bySection[domain.SectionPerspective]
	assert.Equal(t, "static", perspective.ModelUsed)
	assert.Equal(t, domain.Pass2Skipped, perspective.Pass2State)
	assert.Contains(t, perspective.Content, "partner commentary")

	pulse := bySection[domain.SectionMarketPulse]
	assert.Equal(t, "test-model", pulse.ModelUsed)
	assert.Equal(t, 280, pulse.WordCount)
	assert.False(t, pulse.GenerationFailed)
	assert.Equal(t, domain.Pass2Pending, pulse.Pass2State)

	// One LLM call per generated section, none for perspective.
	assert.Len(t, gen.prompts, 4)
	for _, sys := range gen.systems {
		assert.Contains(t, sys, "editorial voice")
	}
}

func TestEngine_Run_ArticleRoutingAndLimits(t *testing.T) {
	articles := rankedArticles()
	// Flood regulatory with more articles than its limit allows.
	for i := 0; i < 5; i++ {
		articles = append(articles, domain.Article{
			Title: "Extra filing", Provider: "edgar", Tier: 1,
			Category: domain.CategoryRegulatory, Quality: 0.4,
		})
	}

	gen := &fakeGenerator{reply: "ok"}
	engine := NewEngine(gen, 1)
	engine.Run(context.Background(), "ed-1", articles, "")

	var regulatoryPrompt string
	for _, p := range gen.prompts {
		if strings.Contains(p, "Regulatory Watch section") {
			regulatoryPrompt = p
		}
	}
	require.NotEmpty(t, regulatoryPrompt)
	assert.Contains(t, regulatoryPrompt, "[3]", "regulatory prompt carries up to three articles")
	assert.NotContains(t, regulatoryPrompt, "[4]")
	assert.NotContains(t, regulatoryPrompt, "Dup story", "duplicates never reach prompts")
}

func TestEngine_Run_RanksArticlesBeforeTruncating(t *testing.T) {
	// Six weak macro articles ahead of one strong one; market_pulse keeps
	// five, and the strong article must survive the cut.
	var articles []domain.Article
	for i := 0; i < 6; i++ {
		articles = append(articles, domain.Article{
			Title: fmt.Sprintf("Minor datapoint %d", i), Provider: "serpapi", Tier: 3,
			Category: domain.CategoryMacro, Quality: 0.1,
		})
	}
	articles = append(articles, domain.Article{
		Title: "Fed cuts rates", Provider: "fred", Tier: 1,
		Category: domain.CategoryMacro, Quality: 1.0,
	})

	gen := &fakeGenerator{reply: "ok"}
	engine := NewEngine(gen, 1)
	engine.Run(context.Background(), "ed-1", articles, "")

	var pulsePrompt string
	for _, p := range gen.prompts {
		if strings.Contains(p, "Market Pulse section") {
			pulsePrompt = p
		}
	}
	require.NotEmpty(t, pulsePrompt)
	assert.Contains(t, pulsePrompt, "[1] Fed cuts rates", "highest quality article leads the prompt")
	assert.NotContains(t, pulsePrompt, "Minor datapoint 5", "weakest article is truncated away")
}

func TestEngine_Run_QualityTiesRankByTier(t *testing.T) {
	articles := []domain.Article{
		{Title: "Wire recap", Provider: "serpapi", Tier: 3, Category: domain.CategoryMacro, Quality: 0.5},
		{Title: "FEDFUNDS series", Provider: "fred", Tier: 1, Category: domain.CategoryMacro, Quality: 0.5},
	}

	gen := &fakeGenerator{reply: "ok"}
	engine := NewEngine(gen, 1)
	engine.Run(context.Background(), "ed-1", articles, "")

	var pulsePrompt string
	for _, p := range gen.prompts {
		if strings.Contains(p, "Market Pulse section") {
			pulsePrompt = p
		}
	}
	require.NotEmpty(t, pulsePrompt)
	assert.Contains(t, pulsePrompt, "[1] FEDFUNDS series")
	assert.Contains(t, pulsePrompt, "[2] Wire recap")
}

func TestEngine_Run_EmptyCategoryGetsAddendum(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	engine := NewEngine(gen, 1)
	engine.Run(context.Background(), "ed-1", nil, "")

	require.Len(t, gen.prompts, 4)
	for _, p := range gen.prompts {
		assert.Contains(t, p, "Limited source data")
	}
}

func TestEngine_Run_EditorialBrief(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	engine := NewEngine(gen, 1)
	engine.Run(context.Background(), "ed-1", rankedArticles(), "focus on GCC outbound capital")

	for _, p := range gen.prompts {
		assert.True(t, strings.HasPrefix(p, "EDITORIAL DIRECTION: focus on GCC outbound capital"))
	}
}

func TestEngine_Run_SectionFailureIsLocal(t *testing.T) {
	gen := &fakeGenerator{reply: "fine", failFor: "Capital Flows section"}
	engine := NewEngine(gen, 2)

	drafts := engine.Run(context.Background(), "ed-1", rankedArticles(), "")
	var failed, succeeded int
	for _, d := range drafts {
		if d.Section == domain.SectionCapitalFlows {
			assert.True(t, d.GenerationFailed)
			assert.Contains(t, d.Content, "generation failed")
			failed++
			continue
		}
		assert.False(t, d.GenerationFailed)
		succeeded++
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, len(domain.SectionOrder)-1, succeeded)
}
