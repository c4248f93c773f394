package compliance

import (
	"strings"

	"newsbrief/internal/domain"
)

// Disclaimer keys, in the order they append to an edition.
const (
	DisclaimerGeneral          = "GENERAL"
	DisclaimerForwardLooking   = "FORWARD_LOOKING"
	DisclaimerPerformance      = "PERFORMANCE"
	DisclaimerCrossBorder      = "CROSS_BORDER"
	DisclaimerPrivatePlacement = "PRIVATE_PLACEMENT"
)

// DisclaimerTexts maps each disclaimer key to its fixed text.
var DisclaimerTexts = map[string]string{
	DisclaimerGeneral: "This newsletter is for informational purposes only and does not " +
		"constitute investment advice. Securities offered through a registered " +
		"broker-dealer, Member FINRA/SIPC.",
	DisclaimerForwardLooking: "Contains forward-looking statements based on current expectations. " +
		"Past performance is not indicative of future results.",
	DisclaimerPerformance: "Performance data sourced from third-party reports and has not been " +
		"independently verified.",
	DisclaimerCrossBorder: "Cross-border investments may be subject to CFIUS review, FATCA/FBAR " +
		"reporting requirements, and other regulatory obligations.",
	DisclaimerPrivatePlacement: "Information based on publicly available sources and does not " +
		"constitute an endorsement or solicitation.",
}

// SelectDisclaimers computes the edition's required disclaimer keys as a pure
// function of its flag set and the content categories its articles covered.
// The general disclaimer is always required.
func SelectDisclaimers(flags []domain.ComplianceFlag, categories map[domain.Category]bool) []string {
	selected := []string{DisclaimerGeneral}

	var forwardLooking, performance, crossBorder, privatePlacement bool
	for _, f := range flags {
		flagType := strings.ToLower(f.FlagType)
		if f.Severity == domain.SeverityAddDisclaimer && strings.Contains(flagType, "forward") {
			forwardLooking = true
		}
		if strings.Contains(flagType, "performance") {
			performance = true
		}
		if strings.Contains(flagType, "cross_border") || strings.Contains(flagType, "cfius") {
			crossBorder = true
		}
		if strings.Contains(flagType, "solicitation") || strings.Contains(flagType, "private_placement") {
			privatePlacement = true
		}
	}

	// Category presence counts as content detection even when no flag fired.
	crossBorder = crossBorder || categories[domain.CategoryRegional]
	privatePlacement = privatePlacement || categories[domain.CategoryDeals]

	if forwardLooking {
		selected = append(selected, DisclaimerForwardLooking)
	}
	if performance {
		selected = append(selected, DisclaimerPerformance)
	}
	if crossBorder {
		selected = append(selected, DisclaimerCrossBorder)
	}
	if privatePlacement {
		selected = append(selected, DisclaimerPrivatePlacement)
	}
	return selected
}
