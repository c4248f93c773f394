package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"newsbrief/internal/compliance"
	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
	"newsbrief/internal/metrics"
	"newsbrief/internal/scoring"
	"newsbrief/internal/source"
)

// ErrNotRunning is returned by Cancel when no run is in flight for the
// edition.
var ErrNotRunning = errors.New("no pipeline run in flight for this edition")

// Fetcher retrieves candidate articles from the configured source providers.
type Fetcher interface {
	FetchAll(ctx context.Context, req source.Request) ([]domain.Article, []source.Failure)
	Len() int
	Names() []string
}

// Verifier runs the verification checks over a retrieved article set.
type Verifier interface {
	Run(ctx context.Context, articles []domain.Article) scoring.Summary
}

// Drafter generates section drafts from verified articles.
type Drafter interface {
	Run(ctx context.Context, editionID string, articles []domain.Article, editorialBrief string) []domain.SectionDraft
}

// SpanScanner runs the deterministic rule scan against one draft.
type SpanScanner interface {
	Scan(draft *domain.SectionDraft) []domain.ComplianceFlag
}

// HolisticReviewer runs the model-based compliance review over all drafts.
type HolisticReviewer interface {
	Review(ctx context.Context, drafts []domain.SectionDraft) []compliance.Pass2Result
}

// Persistence is the pipeline's write surface. Each Save method commits one
// stage's output and the stage transition atomically.
type Persistence interface {
	Edition(ctx context.Context, id string) (*domain.Edition, error)
	MarkRunning(ctx context.Context, editionID string) error
	SaveRetrieval(ctx context.Context, editionID string, articles []domain.Article, note string, failedProviders []string) error
	SaveVerification(ctx context.Context, editionID string, articles []domain.Article, summary scoring.Summary) error
	SaveDrafts(ctx context.Context, editionID string, drafts []domain.SectionDraft) error
	SaveCompliance(ctx context.Context, editionID string, flags []domain.ComplianceFlag, pass2 map[string]domain.Pass2State) error
	MarkFailed(ctx context.Context, editionID, reason string, cancelled bool) error
}

// Orchestrator drives one edition through retrieval, verification, drafting
// and compliance scanning. At most one run per edition is in flight at a time.
type Orchestrator struct {
	db       Persistence
	sources  Fetcher
	verifier Verifier
	drafter  Drafter
	pass1    SpanScanner
	pass2    HolisticReviewer
	window   time.Duration

	locks   *editionLocks
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an orchestrator. window is the retrieval lookback passed to
// source providers.
func New(db Persistence, sources Fetcher, verifier Verifier, drafter Drafter, pass1 SpanScanner, pass2 HolisticReviewer, window time.Duration) *Orchestrator {
	return &Orchestrator{
		db:       db,
		sources:  sources,
		verifier: verifier,
		drafter:  drafter,
		pass1:    pass1,
		pass2:    pass2,
		window:   window,
		locks:    newEditionLocks(),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start launches a pipeline run for the edition in the background. It returns
// once the run is accepted; progress is observable through the edition record.
func (o *Orchestrator) Start(ctx context.Context, editionID string) error {
	edition, err := o.db.Edition(ctx, editionID)
	if err != nil {
		return fmt.Errorf("load edition: %w", err)
	}
	if edition == nil {
		return domain.ErrEditionNotFound
	}
	if edition.Terminal() {
		return domain.ErrEditionImmutable
	}
	if !o.locks.TryAcquire(editionID) {
		return domain.ErrPipelineAlreadyRunning
	}

	// The run outlives the start request, so it gets its own context.
	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[editionID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(runCtx, edition)
	return nil
}

// Cancel requests cancellation of the edition's in-flight run. The run stops
// at the next stage boundary and the edition is marked failed.
func (o *Orchestrator) Cancel(editionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	cancel, ok := o.cancels[editionID]
	if !ok {
		return ErrNotRunning
	}
	cancel()
	return nil
}

// Running reports whether a run is in flight for the edition.
func (o *Orchestrator) Running(editionID string) bool {
	return o.locks.Held(editionID)
}

// Close cancels all in-flight runs and waits for them to finish recording
// their terminal state.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	for _, cancel := range o.cancels {
		cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, edition *domain.Edition) {
	defer o.wg.Done()
	id := edition.ID
	defer func() {
		o.mu.Lock()
		delete(o.cancels, id)
		o.mu.Unlock()
		o.locks.Release(id)
	}()

	metrics.StartPipelineRun()
	log := logger.WithEdition(id)
	log.Info("pipeline run started", "generation_mode", edition.GenerationMode)

	err := o.execute(ctx, edition, log)
	switch {
	case errors.Is(err, context.Canceled):
		// Use a fresh context; the run context is already cancelled.
		if dbErr := o.db.MarkFailed(context.Background(), id, domain.ErrCancelled.Error(), true); dbErr != nil {
			log.Error("failed to record cancellation", "error", dbErr)
		}
		log.Warn("pipeline run cancelled")
		metrics.EndPipelineRun("cancelled")
	case err != nil:
		if dbErr := o.db.MarkFailed(context.Background(), id, err.Error(), false); dbErr != nil {
			log.Error("failed to record failure", "error", dbErr)
		}
		log.Error("pipeline run failed", "error", err)
		metrics.EndPipelineRun("failed")
	default:
		log.Info("pipeline run completed")
		metrics.EndPipelineRun("completed")
	}
}

func (o *Orchestrator) execute(ctx context.Context, edition *domain.Edition, log *slog.Logger) error {
	id := edition.ID
	if err := o.db.MarkRunning(ctx, id); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	articles, err := o.runRetrieval(ctx, id, log)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := o.runVerification(ctx, id, articles); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	drafts, err := o.runDrafting(ctx, edition, articles)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return o.runCompliance(ctx, id, drafts)
}

func (o *Orchestrator) runRetrieval(ctx context.Context, id string, log *slog.Logger) ([]domain.Article, error) {
	start := time.Now()
	articles, failures := o.sources.FetchAll(ctx, source.Request{EditionID: id, Window: o.window})

	byProvider := make(map[string]int)
	for i := range articles {
		byProvider[articles[i].Provider]++
	}
	for provider, n := range byProvider {
		metrics.ObserveProviderFetch(provider, "success", n)
	}
	failedProviders := make([]string, 0, len(failures))
	for _, f := range failures {
		metrics.ObserveProviderFetch(f.Provider, "error", 0)
		failedProviders = append(failedProviders, f.Provider)
	}

	note := o.retrievalNote(len(articles), failedProviders)
	if note != "" {
		log.Warn("retrieval degraded", "note", note)
	}
	if err := o.db.SaveRetrieval(ctx, id, articles, note, failedProviders); err != nil {
		return nil, fmt.Errorf("persist retrieval: %w", err)
	}
	metrics.ObserveStageDuration(string(domain.StageRetrieving), time.Since(start).Seconds())
	return articles, nil
}

// retrievalNote explains an incomplete retrieval to the reviewer. An empty
// note means a full retrieval.
func (o *Orchestrator) retrievalNote(articleCount int, failedProviders []string) string {
	switch {
	case o.sources.Len() == 0:
		return "no source providers configured; retrieval skipped"
	case articleCount == 0 && len(failedProviders) > 0:
		return fmt.Sprintf("no articles retrieved; all providers failed: %s",
			strings.Join(failedProviders, ", "))
	case articleCount == 0:
		return "no articles retrieved for the lookback window"
	case len(failedProviders) > 0:
		return fmt.Sprintf("partial retrieval; failed providers: %s",
			strings.Join(failedProviders, ", "))
	}
	return ""
}

func (o *Orchestrator) runVerification(ctx context.Context, id string, articles []domain.Article) error {
	start := time.Now()
	summary := o.verifier.Run(ctx, articles)
	if err := o.db.SaveVerification(ctx, id, articles, summary); err != nil {
		return fmt.Errorf("persist verification: %w", err)
	}
	metrics.ObserveStageDuration(string(domain.StageVerifying), time.Since(start).Seconds())
	return nil
}

func (o *Orchestrator) runDrafting(ctx context.Context, edition *domain.Edition, articles []domain.Article) ([]domain.SectionDraft, error) {
	start := time.Now()
	brief := ""
	if edition.GenerationMode == domain.ModeGuided && edition.EditorialBrief != nil {
		brief = *edition.EditorialBrief
	}

	drafts := o.drafter.Run(ctx, edition.ID, articles, brief)
	for i := range drafts {
		result := "success"
		if drafts[i].GenerationFailed {
			result = "error"
		}
		if drafts[i].ModelUsed != "static" {
			metrics.ObserveGenerationCall("drafting", result)
		}
	}
	if err := o.db.SaveDrafts(ctx, edition.ID, drafts); err != nil {
		return nil, fmt.Errorf("persist drafts: %w", err)
	}
	metrics.ObserveStageDuration(string(domain.StageDrafting), time.Since(start).Seconds())
	return drafts, nil
}

func (o *Orchestrator) runCompliance(ctx context.Context, id string, drafts []domain.SectionDraft) error {
	start := time.Now()

	var flags []domain.ComplianceFlag
	for i := range drafts {
		// Static placeholder sections carry fixed, pre-reviewed text.
		if drafts[i].ModelUsed == "static" {
			continue
		}
		flags = append(flags, o.pass1.Scan(&drafts[i])...)
	}

	results := o.pass2.Review(ctx, drafts)
	states := make(map[string]domain.Pass2State, len(results))
	for _, res := range results {
		states[res.DraftID] = res.State
		flags = append(flags, res.Flags...)
		switch res.State {
		case domain.Pass2Complete:
			metrics.ObserveGenerationCall("compliance_review", "success")
		case domain.Pass2Incomplete:
			metrics.ObserveGenerationCall("compliance_review", "error")
		}
	}

	type severityPass struct {
		severity domain.Severity
		pass     int
	}
	counts := make(map[severityPass]int)
	for i := range flags {
		counts[severityPass{flags[i].Severity, flags[i].PassNumber}]++
	}
	for key, n := range counts {
		metrics.ObserveFlagsCreated(string(key.severity), key.pass, n)
	}

	if err := o.db.SaveCompliance(ctx, id, flags, states); err != nil {
		return fmt.Errorf("persist compliance: %w", err)
	}
	metrics.ObserveStageDuration(string(domain.StageScanningCompliance), time.Since(start).Seconds())
	return nil
}
