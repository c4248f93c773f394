package scoring

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
)

var tierWeights = map[int]float64{1: 1.0, 2: 0.7, 3: 0.3}

// Summary reports what verification did across one edition's article set.
type Summary struct {
	TierCounts    map[int]int
	Paywalled     int
	DeadLinks     int
	Duplicates    int
	Uncategorized int
}

// Verifier runs the verification checks over one edition's articles:
// tier classification, link probing, paywall detection, relevance bucketing,
// quality scoring, and deduplication.
type Verifier struct {
	lists            TierLists
	client           *http.Client
	probeConcurrency int
	relevanceFloor   float64
	dedupThreshold   float64

	now func() time.Time
}

// NewVerifier builds a verifier. probeConcurrency bounds concurrent link
// probes; dedupThreshold is the title-similarity ratio above which a pair is
// considered duplicate.
func NewVerifier(lists TierLists, probeTimeout time.Duration, probeConcurrency int, relevanceFloor, dedupThreshold float64) *Verifier {
	return &Verifier{
		lists:            lists,
		client:           &http.Client{Timeout: probeTimeout},
		probeConcurrency: probeConcurrency,
		relevanceFloor:   relevanceFloor,
		dedupThreshold:   dedupThreshold,
		now:              time.Now,
	}
}

// Run applies every check in order, mutating the slice in place. All four
// score factors are stored on each article, not just their product.
func (v *Verifier) Run(ctx context.Context, articles []domain.Article) Summary {
	v.classifyTiers(articles)
	v.probeLinks(ctx, articles)
	v.detectPaywalls(articles)
	v.bucket(articles)
	v.score(articles)
	v.deduplicate(articles)

	summary := Summary{TierCounts: map[int]int{1: 0, 2: 0, 3: 0}}
	for i := range articles {
		a := &articles[i]
		summary.TierCounts[a.Tier]++
		if a.Paywalled {
			summary.Paywalled++
		}
		if !a.LinkValid {
			summary.DeadLinks++
		}
		if a.Duplicate {
			summary.Duplicates++
		}
		if a.Category == "" {
			summary.Uncategorized++
		}
	}
	logger.Info("verification complete",
		"articles", len(articles),
		"tier1", summary.TierCounts[1],
		"tier2", summary.TierCounts[2],
		"tier3", summary.TierCounts[3],
		"paywalled", summary.Paywalled,
		"dead_links", summary.DeadLinks,
		"duplicates", summary.Duplicates)
	return summary
}

// classifyTiers assigns trust tier by source domain. Government data feeds
// are always tier 1; articles without a URL keep the tier their adapter set.
func (v *Verifier) classifyTiers(articles []domain.Article) {
	for i := range articles {
		a := &articles[i]
		if a.Provider == "fred" || a.Provider == "edgar" {
			a.Tier = 1
			continue
		}
		if a.URL == "" {
			continue
		}
		domainName := extractDomain(a.URL)
		if domainName == "" {
			continue
		}
		switch {
		case domainMatches(domainName, v.lists.Tier1):
			a.Tier = 1
		case domainMatches(domainName, v.lists.Tier2):
			a.Tier = 2
		default:
			a.Tier = 3
		}
	}
}

// probeLinks checks URL reachability with a HEAD request, retrying blocked
// probes with GET. Government feeds and the trusted domain lists are skipped:
// those hosts are live but routinely reject automated requests.
func (v *Verifier) probeLinks(ctx context.Context, articles []domain.Article) {
	trusted := v.lists.trusted()
	sem := make(chan struct{}, v.probeConcurrency)
	var wg sync.WaitGroup

	for i := range articles {
		a := &articles[i]
		if a.URL == "" || a.Provider == "fred" || a.Provider == "edgar" {
			a.LinkValid = true
			continue
		}
		if domainName := extractDomain(a.URL); domainName != "" && domainMatches(domainName, trusted) {
			a.LinkValid = true
			continue
		}

		wg.Add(1)
		go func(a *domain.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			a.LinkValid = v.probeOne(ctx, a.URL)
		}(a)
	}
	wg.Wait()
}

func (v *Verifier) probeOne(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := v.client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return true
		}
	}

	// HEAD blocked or failed, try GET before declaring the link dead.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err = v.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

func (v *Verifier) detectPaywalls(articles []domain.Article) {
	for i := range articles {
		a := &articles[i]
		if a.URL == "" {
			continue
		}
		if domainName := extractDomain(a.URL); domainName != "" && domainMatches(domainName, v.lists.Paywall) {
			a.Paywalled = true
		}
	}
}

// bucket assigns each article the category with the highest keyword density
// and stores that density as its relevance score. The adapter's category hint
// wins density ties. Articles below the relevance floor for every category
// lose their category and are excluded from drafting, but stay stored.
func (v *Verifier) bucket(articles []domain.Article) {
	for i := range articles {
		a := &articles[i]
		text := a.Title + " " + a.RawSnippet

		best := domain.Category("")
		bestDensity := 0.0
		for _, category := range domain.Categories {
			density := keywordDensity(text, category)
			if density > bestDensity || (density == bestDensity && density > 0 && category == a.Category) {
				best = category
				bestDensity = density
			}
		}

		a.Relevance = bestDensity
		if bestDensity < v.relevanceFloor {
			a.Category = ""
			continue
		}
		a.Category = best
	}
}

// score computes quality as the product of the four stored factors.
func (v *Verifier) score(articles []domain.Article) {
	now := v.now()
	for i := range articles {
		a := &articles[i]

		a.TierWeight = tierWeights[a.Tier]
		if a.TierWeight == 0 {
			a.TierWeight = tierWeights[3]
		}

		age := now.Sub(a.RetrievedAt)
		switch {
		case age < 3*24*time.Hour:
			a.Recency = 1.0
		case age < 7*24*time.Hour:
			a.Recency = 0.8
		case age < 14*24*time.Hour:
			a.Recency = 0.5
		default:
			a.Recency = 0.2
		}

		switch {
		case !a.LinkValid:
			a.Access = 0.0
		case a.Paywalled:
			a.Access = 0.5
		default:
			a.Access = 1.0
		}

		a.Quality = round2(a.TierWeight * a.Recency * a.Relevance * a.Access)
	}
}

// deduplicate marks near-duplicate pairs. A pair is duplicate when the title
// similarity ratio exceeds the threshold outright, or when both URLs share a
// host and similarity exceeds 80% of the threshold. The higher-quality
// article survives; ties keep the earlier-retrieved one. Duplicates score
// zero so they never outrank surviving articles.
func (v *Verifier) deduplicate(articles []domain.Article) {
	for i := range articles {
		a := &articles[i]
		if a.Duplicate {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			b := &articles[j]
			if b.Duplicate {
				continue
			}
			if !v.isDuplicatePair(a, b) {
				continue
			}
			loser := b
			if worse(a, b) {
				loser = a
			}
			loser.Duplicate = true
			loser.Quality = 0
			if loser == a {
				break
			}
		}
	}
}

func (v *Verifier) isDuplicatePair(a, b *domain.Article) bool {
	ratio := TitleSimilarity(a.Title, b.Title)
	if ratio > v.dedupThreshold {
		return true
	}
	hostA, hostB := extractDomain(a.URL), extractDomain(b.URL)
	return hostA != "" && hostA == hostB && ratio > v.dedupThreshold*0.8
}

// worse reports whether a loses a duplicate contest against b. Quality
// decides first, then trust tier, then earlier retrieval.
func worse(a, b *domain.Article) bool {
	if a.Quality != b.Quality {
		return a.Quality < b.Quality
	}
	if a.Tier != b.Tier {
		return a.Tier > b.Tier
	}
	return a.RetrievedAt.After(b.RetrievedAt)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
