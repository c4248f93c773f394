package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/domain"
	"newsbrief/internal/llm"
	"newsbrief/internal/logger"
)

const pass2SystemTemplate = `You are a FINRA compliance reviewer evaluating newsletter content produced by registered representatives of a broker-dealer (Member FINRA/SIPC). The newsletter qualifies as a 'retail communication' under FINRA Rule 2210 because it is distributed to more than 25 retail investors.

REGULATORY FRAMEWORK:
%s

EVALUATION CRITERIA - flag content that:
1. Is not fair and balanced [FINRA 2210(d)(1)(A)]
2. Contains false, exaggerated, or misleading statements [FINRA 2210(d)(1)(B)]
3. Makes performance predictions or projections [FINRA 2210(d)(1)(F)]
4. Fails to balance risk and benefit [FINRA 2210(d)(1)(D)]
5. Could constitute general solicitation [SEC Reg D 506(b)]
6. Lacks cross-border regulatory awareness [CFIUS]
7. Violates attribution requirements [SEC Marketing Rule 206(4)-1]
8. Does not maintain ethical, professional tone [FINRA Rule 2010]

OUTPUT FORMAT - Return ONLY valid JSON, no markdown code fences:
{"flags": [...]}

Each flag object must have:
- "severity": one of "BLOCK", "MANDATORY_REVIEW", "WARNING", "ADD_DISCLAIMER"
- "flag_type": category string (e.g. "performance_claim", "guarantee_language")
- "matched_text": the exact text from the draft that triggered the flag
- "rule_reference": specific rule citation (e.g. "2210(d)(1)(B)")
- "explanation": why this text is a compliance concern
- "recommended_action": specific suggestion to fix or mitigate

IMPORTANT:
- Only flag genuine compliance concerns. Do not flag general market commentary or properly sourced factual statements.
- If no issues are found, return {"flags": []}
- Return ONLY valid JSON. No markdown code fences, no explanatory text outside the JSON.`

const pass2UserTemplate = `Review the following newsletter section for FINRA compliance issues.

SECTION: %s

DRAFT CONTENT:
%s

Analyze this section and return a JSON object with any compliance flags.`

var codeFenceOpenRE = regexp.MustCompile("^```\\w*\\n?")

// Pass2Result pairs one draft with its holistic-review outcome.
type Pass2Result struct {
	DraftID string
	State   domain.Pass2State
	Flags   []domain.ComplianceFlag
}

// Pass2Reviewer sends full drafts plus the regulatory reference to the
// generative review service through a bounded worker pool. A failed or
// malformed review degrades that draft to the incomplete state instead of
// blocking the edition.
type Pass2Reviewer struct {
	gen         llm.Generator
	reference   string
	concurrency int

	now func() time.Time
}

// NewPass2Reviewer builds a reviewer around the given regulatory reference
// text, injected verbatim into every request.
func NewPass2Reviewer(gen llm.Generator, reference string, concurrency int) *Pass2Reviewer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pass2Reviewer{gen: gen, reference: reference, concurrency: concurrency, now: time.Now}
}

// LoadRegulatoryReference reads the fixed reference document.
func LoadRegulatoryReference(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read regulatory reference: %w", err)
	}
	return string(data), nil
}

// Review runs Pass 2 for every draft that needs it. Drafts already marked
// skipped (the static perspective section) keep that state.
func (r *Pass2Reviewer) Review(ctx context.Context, drafts []domain.SectionDraft) []Pass2Result {
	results := make([]Pass2Result, len(drafts))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i := range drafts {
		draft := &drafts[i]
		if draft.Pass2State == domain.Pass2Skipped {
			results[i] = Pass2Result{DraftID: draft.ID, State: domain.Pass2Skipped}
			continue
		}
		wg.Add(1)
		go func(i int, draft *domain.SectionDraft) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.reviewOne(ctx, draft)
		}(i, draft)
	}
	wg.Wait()
	return results
}

func (r *Pass2Reviewer) reviewOne(ctx context.Context, draft *domain.SectionDraft) Pass2Result {
	prompt := fmt.Sprintf(pass2UserTemplate, draft.Section, draft.Content)
	system := fmt.Sprintf(pass2SystemTemplate, r.reference)

	raw, _, err := r.gen.Generate(ctx, prompt, llm.Options{
		System:      system,
		Temperature: 0.3,
		MaxTokens:   8192,
	})
	if err != nil {
		logger.Error("holistic review call failed",
			"draft_id", draft.ID, "section", draft.Section, "error", err)
		return Pass2Result{DraftID: draft.ID, State: domain.Pass2Incomplete}
	}

	flags, err := r.parseFlags(draft.ID, raw)
	if err != nil {
		logger.Warn("holistic review returned unparseable output",
			"draft_id", draft.ID, "section", draft.Section, "error", err)
		return Pass2Result{DraftID: draft.ID, State: domain.Pass2Incomplete}
	}
	return Pass2Result{DraftID: draft.ID, State: domain.Pass2Complete, Flags: flags}
}

// parseFlags decodes the review JSON. Models wrap JSON in markdown fences
// often enough that stripping them first is required, not defensive.
func (r *Pass2Reviewer) parseFlags(draftID, raw string) ([]domain.ComplianceFlag, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = codeFenceOpenRE.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed struct {
		Flags []struct {
			Severity          string `json:"severity"`
			FlagType          string `json:"flag_type"`
			MatchedText       string `json:"matched_text"`
			RuleReference     string `json:"rule_reference"`
			Explanation       string `json:"explanation"`
			RecommendedAction string `json:"recommended_action"`
		} `json:"flags"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("decode review JSON: %w", err)
	}

	flags := make([]domain.ComplianceFlag, 0, len(parsed.Flags))
	for _, f := range parsed.Flags {
		severity := domain.Severity(f.Severity)
		if !domain.IsValidSeverity(severity) {
			logger.Warn("dropping review flag with invalid severity",
				"draft_id", draftID, "severity", f.Severity)
			continue
		}
		flagType := f.FlagType
		if flagType == "" {
			flagType = "general"
		}
		flags = append(flags, domain.ComplianceFlag{
			ID:                uuid.New().String(),
			SectionDraftID:    draftID,
			Severity:          severity,
			FlagType:          flagType,
			MatchedText:       f.MatchedText,
			RuleReference:     f.RuleReference,
			Explanation:       f.Explanation,
			RecommendedAction: f.RecommendedAction,
			PassNumber:        2,
			CreatedAt:         r.now().UTC(),
		})
	}
	return flags, nil
}
