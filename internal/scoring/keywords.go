package scoring

import (
	"strings"

	"newsbrief/internal/domain"
)

// categoryKeywords drives both relevance scoring and category bucketing.
// Density for a category is the share of its keywords found in an article's
// title plus snippet.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryMacro: {
		"rate", "rates", "inflation", "cpi", "fed", "treasury", "yield",
		"gdp", "cap rate", "monetary", "economy", "macro",
	},
	domain.CategoryRegional: {
		"gcc", "gulf", "saudi", "uae", "qatar", "kuwait", "latam",
		"mexico", "colombia", "brazil", "chile", "sovereign wealth",
		"middle east", "latin america",
	},
	domain.CategoryDeals: {
		"fund", "acquisition", "deal", "close", "closing", "raise",
		"allocation", "lp", "gp", "portfolio", "joint venture", "vehicle",
	},
	domain.CategoryRegulatory: {
		"sec", "finra", "cfius", "regulation", "regulatory", "compliance",
		"filing", "rule", "enforcement", "form d", "8-k", "s-11",
	},
}

// keywordDensity returns the fraction of the category's keywords present in
// the text. Single-word keywords match on word boundaries; phrases match as
// substrings of the normalized text.
func keywordDensity(text string, category domain.Category) float64 {
	keywords := categoryKeywords[category]
	if len(keywords) == 0 {
		return 0
	}
	normalized := " " + normalizeText(text) + " "
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(normalized, " "+kw+" ") {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// normalizeText lowercases and replaces punctuation with spaces so word
// boundary matching works on plain Contains.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
