package domain

import "time"

// Category is a fixed content category for retrieved articles.
type Category string

const (
	CategoryMacro      Category = "macro"
	CategoryRegional   Category = "regional"
	CategoryDeals      Category = "deals"
	CategoryRegulatory Category = "regulatory"
)

// Categories lists all content categories in a stable order.
var Categories = []Category{CategoryMacro, CategoryRegional, CategoryDeals, CategoryRegulatory}

// IsValidCategory checks if a category is one of the fixed set.
func IsValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Article represents one retrieved piece of source content attached to an edition.
// The four score factors are stored individually alongside their product so the
// review surface can show how a quality score was derived.
type Article struct {
	ID          string    `json:"id"`
	EditionID   string    `json:"edition_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Provider    string    `json:"provider"`
	Tier        int       `json:"tier"`
	TierWeight  float64   `json:"tier_weight"`
	Recency     float64   `json:"recency_score"`
	Relevance   float64   `json:"relevance_score"`
	Access      float64   `json:"accessibility"`
	Quality     float64   `json:"quality_score"`
	Category    Category  `json:"category,omitempty"`
	Paywalled   bool      `json:"is_paywalled"`
	Duplicate   bool      `json:"is_duplicate"`
	LinkValid   bool      `json:"link_valid"`
	RawSnippet  string    `json:"raw_snippet,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Draftable reports whether the article may feed section drafting.
// Duplicates are retained for audit but never drafted from; articles that
// matched no category above the relevance floor are likewise excluded.
func (a *Article) Draftable() bool {
	return !a.Duplicate && a.Quality > 0 && a.Category != ""
}
