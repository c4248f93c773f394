package drafting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
	"newsbrief/internal/llm"
	"newsbrief/internal/logger"
)

// Engine generates section drafts for one edition from its ranked, draftable
// articles. Section failures are local: a failed generation marks that draft
// and the edition continues.
type Engine struct {
	gen         llm.Generator
	concurrency int

	now func() time.Time
}

// NewEngine builds a drafting engine. concurrency bounds how many sections
// generate at once.
func NewEngine(gen llm.Generator, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{gen: gen, concurrency: concurrency, now: time.Now}
}

// Run produces one draft per section in template order. Draftable articles
// are ranked per category by quality, tier breaking ties, so section limits
// truncate to the best sources rather than retrieval order. editorialBrief,
// when set, steers every generated section.
func (e *Engine) Run(ctx context.Context, editionID string, articles []domain.Article, editorialBrief string) []domain.SectionDraft {
	ranked := make(map[domain.Category][]domain.Article)
	for _, a := range articles {
		if a.Draftable() {
			ranked[a.Category] = append(ranked[a.Category], a)
		}
	}
	for _, bucket := range ranked {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].Quality != bucket[j].Quality {
				return bucket[i].Quality > bucket[j].Quality
			}
			return bucket[i].Tier < bucket[j].Tier
		})
	}

	drafts := make([]domain.SectionDraft, len(domain.SectionOrder))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, section := range domain.SectionOrder {
		if section == domain.SectionPerspective {
			drafts[i] = e.placeholderDraft(editionID)
			continue
		}
		wg.Add(1)
		go func(i int, section string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			drafts[i] = e.generateSection(ctx, editionID, section, ranked, editorialBrief)
		}(i, section)
	}
	wg.Wait()

	return drafts
}

func (e *Engine) placeholderDraft(editionID string) domain.SectionDraft {
	return domain.SectionDraft{
		ID:          uuid.New().String(),
		EditionID:   editionID,
		Section:     domain.SectionPerspective,
		Content:     perspectivePlaceholder,
		WordCount:   len(strings.Fields(perspectivePlaceholder)),
		ModelUsed:   "static",
		Pass2State:  domain.Pass2Skipped,
		GeneratedAt: e.now().UTC(),
	}
}

func (e *Engine) generateSection(ctx context.Context, editionID, section string, ranked map[domain.Category][]domain.Article, editorialBrief string) domain.SectionDraft {
	category := domain.SectionCategories[section]
	limit := domain.SectionArticleLimits[section]
	sectionArticles := ranked[category]
	if len(sectionArticles) > limit {
		sectionArticles = sectionArticles[:limit]
	}

	prompt := fmt.Sprintf(sectionPrompts[section], formatArticles(sectionArticles))
	if len(sectionArticles) == 0 {
		prompt += noArticlesAddendum
	}
	if editorialBrief != "" {
		prompt = "EDITORIAL DIRECTION: " + editorialBrief + "\n" +
			"Prioritize this theme in your analysis while maintaining balanced coverage.\n\n" + prompt
	}

	logger.Info("generating section",
		"edition_id", editionID, "section", section, "articles", len(sectionArticles))

	draft := domain.SectionDraft{
		ID:          uuid.New().String(),
		EditionID:   editionID,
		Section:     section,
		Pass2State:  domain.Pass2Pending,
		GeneratedAt: e.now().UTC(),
	}

	text, modelID, err := e.gen.Generate(ctx, prompt, llm.Options{
		System:      voiceSystemPrompt,
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		logger.Error("section generation failed",
			"edition_id", editionID, "section", section, "error", err)
		draft.Content = failedSectionContent
		draft.GenerationFailed = true
	} else {
		if strings.TrimSpace(text) == "" {
			text = "[No content generated]"
		}
		draft.Content = text
		draft.ModelUsed = modelID
	}
	draft.WordCount = len(strings.Fields(draft.Content))

	if !draft.GenerationFailed && !draft.WithinWordRange() {
		logger.Warn("section outside target word range",
			"edition_id", editionID, "section", section, "words", draft.WordCount)
	}
	return draft
}

// formatArticles renders ranked articles into prompt context.
func formatArticles(articles []domain.Article) string {
	parts := make([]string, 0, len(articles))
	for i, a := range articles {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "Source: %s (Tier %d)", a.Provider, a.Tier)
		if a.URL != "" {
			fmt.Fprintf(&b, "\nURL: %s", a.URL)
		}
		if a.RawSnippet != "" {
			snippet := a.RawSnippet
			if len(snippet) > 500 {
				snippet = snippet[:500]
			}
			fmt.Fprintf(&b, "\nSummary: %s", snippet)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}
