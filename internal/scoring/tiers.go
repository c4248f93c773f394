package scoring

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TierLists holds the source-domain allow-lists used for trust tiering and
// paywall detection. Lists match subdomains too, so "markets.bloomberg.com"
// matches a "bloomberg.com" entry.
type TierLists struct {
	Tier1   []string `yaml:"tier1"`
	Tier2   []string `yaml:"tier2"`
	Paywall []string `yaml:"paywall"`
}

// DefaultTierLists returns the built-in domain lists.
func DefaultTierLists() TierLists {
	return TierLists{
		Tier1: []string{
			"federalreserve.gov", "sec.gov", "finra.org", "treasury.gov", "bls.gov",
			"cbre.com", "jll.com", "cushmanwakefield.com",
			"bloomberg.com", "wsj.com", "ft.com", "reuters.com",
		},
		Tier2: []string{
			"pere.com", "globest.com", "bisnow.com", "commercialobserver.com",
			"zawya.com", "preqin.com", "pitchbook.com", "nareit.com",
		},
		Paywall: []string{
			"wsj.com", "ft.com", "bloomberg.com", "barrons.com",
			"economist.com", "nytimes.com",
		},
	}
}

// LoadTierLists reads domain lists from a YAML file, falling back to the
// defaults for any list the file leaves empty.
func LoadTierLists(path string) (TierLists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TierLists{}, fmt.Errorf("read tier lists: %w", err)
	}
	var lists TierLists
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return TierLists{}, fmt.Errorf("parse tier lists: %w", err)
	}
	defaults := DefaultTierLists()
	if len(lists.Tier1) == 0 {
		lists.Tier1 = defaults.Tier1
	}
	if len(lists.Tier2) == 0 {
		lists.Tier2 = defaults.Tier2
	}
	if len(lists.Paywall) == 0 {
		lists.Paywall = defaults.Paywall
	}
	return lists, nil
}

// trusted returns the union of all lists. These domains commonly reject
// automated requests, so the link probe skips them.
func (t TierLists) trusted() []string {
	all := make([]string, 0, len(t.Tier1)+len(t.Tier2)+len(t.Paywall))
	all = append(all, t.Tier1...)
	all = append(all, t.Tier2...)
	all = append(all, t.Paywall...)
	return all
}

// extractDomain pulls the host out of a URL, lowercased and without the
// leading www prefix. Returns empty string when nothing usable parses.
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// domainMatches reports whether the domain equals or is a subdomain of any
// entry in the list.
func domainMatches(domain string, list []string) bool {
	for _, entry := range list {
		if domain == entry || strings.HasSuffix(domain, "."+entry) {
			return true
		}
	}
	return false
}
