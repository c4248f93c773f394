package compliance

import (
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
)

// Pass1Scanner runs the deterministic pattern scan over one draft's text.
type Pass1Scanner struct {
	table RuleTable

	now func() time.Time
}

func NewPass1Scanner(table RuleTable) *Pass1Scanner {
	return &Pass1Scanner{table: table, now: time.Now}
}

// Scan returns one flag per distinct matched span. Multiple matches of the
// same rule each flag separately; two rules matching the same exact span
// record it once, for the rule listed first.
func (s *Pass1Scanner) Scan(draft *domain.SectionDraft) []domain.ComplianceFlag {
	type span struct{ start, end int }
	seen := make(map[span]bool)

	var flags []domain.ComplianceFlag
	for _, rule := range s.table.Rules() {
		for _, loc := range rule.Pattern.FindAllStringIndex(draft.Content, -1) {
			if rule.Exclude != nil && rule.Exclude.MatchString(draft.Content[loc[0]:]) {
				continue
			}
			key := span{loc[0], loc[1]}
			if seen[key] {
				continue
			}
			seen[key] = true

			flags = append(flags, domain.ComplianceFlag{
				ID:                uuid.New().String(),
				SectionDraftID:    draft.ID,
				Severity:          rule.Severity,
				FlagType:          rule.Name,
				MatchedText:       draft.Content[loc[0]:loc[1]],
				RuleReference:     rule.RuleReference,
				Explanation:       rule.Explanation,
				RecommendedAction: rule.RecommendedAction,
				PassNumber:        1,
				CreatedAt:         s.now().UTC(),
			})
		}
	}
	return flags
}
