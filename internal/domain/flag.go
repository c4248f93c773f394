package domain

import "time"

// Severity orders compliance-flag urgency. BLOCK outranks everything.
type Severity string

const (
	SeverityBlock           Severity = "BLOCK"
	SeverityMandatoryReview Severity = "MANDATORY_REVIEW"
	SeverityWarning         Severity = "WARNING"
	SeverityAddDisclaimer   Severity = "ADD_DISCLAIMER"
)

var severityRank = map[Severity]int{
	SeverityBlock:           4,
	SeverityMandatoryReview: 3,
	SeverityWarning:         2,
	SeverityAddDisclaimer:   1,
}

// IsValidSeverity checks a severity against the fixed ordered set.
func IsValidSeverity(s Severity) bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the ordering weight of a severity; higher is more urgent.
func (s Severity) Rank() int {
	return severityRank[s]
}

// ComplianceFlag is one compliance issue bound to an exact text span of a
// section draft. Severity and rule reference are immutable once created;
// only the resolution fields mutate, and only through the review partner.
type ComplianceFlag struct {
	ID                string     `json:"id"`
	SectionDraftID    string     `json:"section_draft_id"`
	Severity          Severity   `json:"severity"`
	FlagType          string     `json:"flag_type"`
	MatchedText       string     `json:"matched_text"`
	RuleReference     string     `json:"rule_reference"`
	Explanation       string     `json:"explanation"`
	RecommendedAction string     `json:"recommended_action"`
	PassNumber        int        `json:"pass_number"`
	Resolved          bool       `json:"is_resolved"`
	ResolvedBy        *string    `json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote    *string    `json:"resolution_note,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Blocking reports whether the flag, while unresolved, prevents approval.
func (f *ComplianceFlag) Blocking() bool {
	return !f.Resolved && f.Severity == SeverityBlock
}
