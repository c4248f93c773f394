package domain

import "time"

// Section names for the fixed newsletter template.
const (
	SectionMarketPulse       = "market_pulse"
	SectionRegionalSpotlight = "regional_spotlight"
	SectionCapitalFlows      = "capital_flows"
	SectionRegulatoryWatch   = "regulatory_watch"
	SectionPerspective       = "perspective"
)

// SectionOrder is the publication order of newsletter sections.
var SectionOrder = []string{
	SectionMarketPulse,
	SectionRegionalSpotlight,
	SectionCapitalFlows,
	SectionRegulatoryWatch,
	SectionPerspective,
}

// SectionDisplayNames maps section keys to their reader-facing titles.
var SectionDisplayNames = map[string]string{
	SectionMarketPulse:       "Market Pulse",
	SectionRegionalSpotlight: "Regional Spotlight",
	SectionCapitalFlows:      "Capital Flows",
	SectionRegulatoryWatch:   "Regulatory Watch",
	SectionPerspective:       "The Brief's Perspective",
}

// WordRange is the target word-count band for a section.
type WordRange struct {
	Min int
	Max int
}

// SectionWordRanges holds the target word counts per section. Text outside
// the band is surfaced to review as metadata, never rejected automatically.
var SectionWordRanges = map[string]WordRange{
	SectionMarketPulse:       {Min: 250, Max: 350},
	SectionRegionalSpotlight: {Min: 400, Max: 500},
	SectionCapitalFlows:      {Min: 200, Max: 300},
	SectionRegulatoryWatch:   {Min: 200, Max: 300},
}

// SectionCategories maps each generated section to the content category
// whose ranked articles feed its prompt. Perspective takes no articles.
var SectionCategories = map[string]Category{
	SectionMarketPulse:       CategoryMacro,
	SectionRegionalSpotlight: CategoryRegional,
	SectionCapitalFlows:      CategoryDeals,
	SectionRegulatoryWatch:   CategoryRegulatory,
}

// SectionArticleLimits caps how many ranked articles go into each prompt.
var SectionArticleLimits = map[string]int{
	SectionMarketPulse:       5,
	SectionRegionalSpotlight: 5,
	SectionCapitalFlows:      5,
	SectionRegulatoryWatch:   3,
}

// Pass2State records whether the holistic compliance pass covered a draft.
type Pass2State string

const (
	Pass2Pending    Pass2State = "pending"
	Pass2Complete   Pass2State = "complete"
	Pass2Incomplete Pass2State = "incomplete"
	Pass2Skipped    Pass2State = "skipped"
)

// SectionDraft is generated text for one section of one edition. Regeneration
// inserts a new row rather than mutating in place, preserving history.
type SectionDraft struct {
	ID               string     `json:"id"`
	EditionID        string     `json:"edition_id"`
	Section          string     `json:"section_name"`
	Content          string     `json:"content"`
	WordCount        int        `json:"word_count"`
	ModelUsed        string     `json:"model_used"`
	GenerationFailed bool       `json:"generation_failed"`
	Pass2State       Pass2State `json:"pass2_state"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

// WithinWordRange reports whether the draft landed inside its section's
// target band. Sections without a configured band always report true.
func (d *SectionDraft) WithinWordRange() bool {
	band, ok := SectionWordRanges[d.Section]
	if !ok {
		return true
	}
	return d.WordCount >= band.Min && d.WordCount <= band.Max
}
