package compliance

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"newsbrief/internal/domain"
)

// Rule maps one pattern category to its severity and rule reference. Exclude,
// when set, is anchored at a match start and suppresses matches it covers, so
// "risk-free rate" never trips the guarantee rule.
type Rule struct {
	Name              string
	Pattern           *regexp.Regexp
	Exclude           *regexp.Regexp
	Severity          domain.Severity
	RuleReference     string
	Explanation       string
	RecommendedAction string
}

// RuleTable supplies the Pass 1 pattern rules. Implemented as a lookup
// abstraction so adding a pattern never touches scanner control flow.
type RuleTable interface {
	Rules() []Rule
}

// StaticRuleTable serves a fixed, preloaded rule slice.
type StaticRuleTable struct {
	rules []Rule
}

func (t *StaticRuleTable) Rules() []Rule {
	return t.rules
}

// DefaultRuleTable returns the built-in pattern table.
func DefaultRuleTable() *StaticRuleTable {
	return &StaticRuleTable{rules: []Rule{
		{
			Name:          "guarantee_language",
			Pattern:       regexp.MustCompile(`(?i)\b(guaranteed|risk[- ]free|no\s+risk|certain\s+to|cannot\s+lose)\b`),
			Exclude:       regexp.MustCompile(`(?i)^risk[- ]free\s+(rate|returns?|yield|benchmark)\b`),
			Severity:      domain.SeverityBlock,
			RuleReference: "2210(d)(1)(B)",
			Explanation:   "Guarantee or risk-elimination language is prohibited in broker-dealer communications.",
			RecommendedAction: "Remove guarantee language entirely. Reframe with appropriate risk disclosure.",
		},
		{
			Name:          "mnpi_risk",
			Pattern:       regexp.MustCompile(`(?i)\b(insider\s+information|confidential\s+information|non[- ]public\s+information|before\s+announcement)\b`),
			Severity:      domain.SeverityBlock,
			RuleReference: "2210(d)(1)(B)",
			Explanation:   "Content that references or implies use of material non-public information.",
			RecommendedAction: "Remove any reference to non-public or insider information. Ensure all data is from public sources.",
		},
		{
			Name:          "superlative_claim",
			Pattern:       regexp.MustCompile(`(?i)\b(best\s+fund|top\s+manager|leading\s+performer|#1\s+fund|number\s+one\s+fund)\b`),
			Severity:      domain.SeverityBlock,
			RuleReference: "2210(d)(1)(B)",
			Explanation:   "Superlative claims about fund performance or manager rankings are misleading without substantiation.",
			RecommendedAction: "Remove superlative. If ranking is sourced, cite the methodology and time period.",
		},
		{
			Name:          "performance_claim",
			Pattern:       regexp.MustCompile(`(?i)\b(\d+\s*%\s*(return|yield|IRR|annualized|net|gross)|(IRR|yield|return)\s+of\s+\d+|outperform(ed|s|ing)?|beat(s|ing)?\s+(the\s+)?benchmark)\b`),
			Severity:      domain.SeverityMandatoryReview,
			RuleReference: "2210(d)(1)(F)",
			Explanation:   "Specific performance figures or claims of outperformance require careful review for fair presentation.",
			RecommendedAction: "Verify source attribution. Add context about time period, methodology, and that past performance does not guarantee future results.",
		},
		{
			Name:          "solicitation",
			Pattern:       regexp.MustCompile(`(?i)\b(contact\s+us\s+to\s+invest|invest\s+with\s+us|schedule\s+a\s+call|get\s+in\s+touch\s+to\s+(invest|learn|discuss))\b`),
			Severity:      domain.SeverityWarning,
			RuleReference: "2210(d)(1)(A), Reg D 506(b)",
			Explanation:   "Direct solicitation language may violate general solicitation restrictions for private placements.",
			RecommendedAction: "Remove solicitation language. Newsletter should inform, not solicit.",
		},
		{
			Name:          "tax_claim",
			Pattern:       regexp.MustCompile(`(?i)\b(tax[- ]free\s+investment|no\s+tax\s+implications|tax\s+exempt\s+investment|avoid(s|ing)?\s+(all\s+)?tax(es|ation)?)\b`),
			Severity:      domain.SeverityWarning,
			RuleReference: "2210(d)(4)",
			Explanation:   "Tax benefit claims must be qualified and cannot overstate the tax advantages of an investment.",
			RecommendedAction: "Qualify tax references. Add disclaimer that tax treatment depends on individual circumstances.",
		},
		{
			Name:          "forward_looking",
			Pattern:       regexp.MustCompile(`(?i)\b(we\s+expect|we\s+forecast|we\s+anticipate|will\s+likely|projected\s+to|poised\s+to)\b`),
			Severity:      domain.SeverityAddDisclaimer,
			RuleReference: "2210(d)(1)(F)",
			Explanation:   "Forward-looking statements should be identified as such and accompanied by appropriate disclaimers.",
			RecommendedAction: "Add forward-looking statement disclaimer. Consider qualifying with 'based on current expectations' or similar.",
		},
	}}
}

type ruleSpec struct {
	Name              string `yaml:"name"`
	Pattern           string `yaml:"pattern"`
	Exclude           string `yaml:"exclude"`
	Severity          string `yaml:"severity"`
	RuleReference     string `yaml:"rule_reference"`
	Explanation       string `yaml:"explanation"`
	RecommendedAction string `yaml:"recommended_action"`
}

// LoadRuleTable reads a pattern rule table from YAML. Every rule must carry a
// valid severity and a compilable pattern.
func LoadRuleTable(path string) (*StaticRuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	var specs []ruleSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}

	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		severity := domain.Severity(spec.Severity)
		if !domain.IsValidSeverity(severity) {
			return nil, fmt.Errorf("rule %q: invalid severity %q", spec.Name, spec.Severity)
		}
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		var exclude *regexp.Regexp
		if spec.Exclude != "" {
			exclude, err = regexp.Compile(spec.Exclude)
			if err != nil {
				return nil, fmt.Errorf("rule %q exclude: %w", spec.Name, err)
			}
		}
		rules = append(rules, Rule{
			Name:              spec.Name,
			Pattern:           pattern,
			Exclude:           exclude,
			Severity:          severity,
			RuleReference:     spec.RuleReference,
			Explanation:       spec.Explanation,
			RecommendedAction: spec.RecommendedAction,
		})
	}
	return &StaticRuleTable{rules: rules}, nil
}
