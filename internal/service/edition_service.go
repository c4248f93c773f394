package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/compliance"
	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
	"newsbrief/internal/repository"
)

// CreateEditionInput carries the parameters of a new edition.
type CreateEditionInput struct {
	GenerationMode string
	EditorialBrief string
}

// Disclaimer is one standard disclaimer the final newsletter must carry.
type Disclaimer struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// EditionDetail is the full review view of one edition: the edition record,
// its ranked articles, section drafts, compliance flags, computed disclaimers
// and the audit trail.
type EditionDetail struct {
	Edition     domain.Edition          `json:"edition"`
	Articles    []domain.Article        `json:"articles"`
	Drafts      []domain.SectionDraft   `json:"drafts"`
	Flags       []domain.ComplianceFlag `json:"flags"`
	Disclaimers []Disclaimer            `json:"disclaimers"`
	AuditTrail  []domain.AuditEntry     `json:"audit_trail"`
}

// EditionService manages edition lifecycle and pipeline launches.
type EditionService struct {
	editions repository.EditionRepository
	articles repository.ArticleRepository
	drafts   repository.DraftRepository
	flags    repository.FlagRepository
	audit    repository.AuditRepository
	pipeline PipelineRunner
}

// NewEditionService creates a new EditionService.
func NewEditionService(
	editions repository.EditionRepository,
	articles repository.ArticleRepository,
	drafts repository.DraftRepository,
	flags repository.FlagRepository,
	audit repository.AuditRepository,
	pipeline PipelineRunner,
) *EditionService {
	return &EditionService{
		editions: editions,
		articles: articles,
		drafts:   drafts,
		flags:    flags,
		audit:    audit,
		pipeline: pipeline,
	}
}

// Create registers a new edition in draft state. The pipeline does not start
// until Start is called.
func (s *EditionService) Create(ctx context.Context, input CreateEditionInput) (*domain.Edition, error) {
	mode := input.GenerationMode
	if mode == "" {
		mode = domain.ModeAuto
	}

	now := time.Now().UTC()
	edition := &domain.Edition{
		ID:             uuid.NewString(),
		Status:         domain.EditionDraft,
		Stage:          domain.StageIdle,
		Progress:       0,
		GenerationMode: mode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.EditorialBrief != "" {
		brief := input.EditorialBrief
		edition.EditorialBrief = &brief
	}

	if err := s.editions.Create(ctx, edition); err != nil {
		return nil, fmt.Errorf("create edition: %w", err)
	}

	logger.Info("edition created", "edition_id", edition.ID, "generation_mode", mode)
	return edition, nil
}

// List returns all editions, newest first.
func (s *EditionService) List(ctx context.Context) ([]domain.Edition, error) {
	return s.editions.List(ctx)
}

// Get assembles the full review detail for one edition.
func (s *EditionService) Get(ctx context.Context, id string) (*EditionDetail, error) {
	edition, err := s.editions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if edition == nil {
		return nil, domain.ErrEditionNotFound
	}

	articles, err := s.articles.ListByEdition(ctx, id)
	if err != nil {
		return nil, err
	}
	drafts, err := s.drafts.ListByEdition(ctx, id)
	if err != nil {
		return nil, err
	}
	flags, err := s.flags.ListByEdition(ctx, id)
	if err != nil {
		return nil, err
	}
	trail, err := s.audit.ListByEdition(ctx, id)
	if err != nil {
		return nil, err
	}

	sortDraftsBySection(drafts)

	return &EditionDetail{
		Edition:     *edition,
		Articles:    articles,
		Drafts:      drafts,
		Flags:       flags,
		Disclaimers: computeDisclaimers(articles, flags),
		AuditTrail:  trail,
	}, nil
}

// Start launches the generation pipeline for an edition.
func (s *EditionService) Start(ctx context.Context, id string) error {
	return s.pipeline.Start(ctx, id)
}

// Cancel stops an in-flight pipeline run for an edition.
func (s *EditionService) Cancel(ctx context.Context, id string) error {
	edition, err := s.editions.Get(ctx, id)
	if err != nil {
		return err
	}
	if edition == nil {
		return domain.ErrEditionNotFound
	}
	return s.pipeline.Cancel(id)
}

// computeDisclaimers derives the disclaimer set from unstripped flags and the
// categories present among draftable articles. It is recomputed per request,
// never stored.
func computeDisclaimers(articles []domain.Article, flags []domain.ComplianceFlag) []Disclaimer {
	categories := make(map[domain.Category]bool)
	for i := range articles {
		if articles[i].Draftable() {
			categories[articles[i].Category] = true
		}
	}

	keys := compliance.SelectDisclaimers(flags, categories)
	out := make([]Disclaimer, 0, len(keys))
	for _, key := range keys {
		out = append(out, Disclaimer{Key: key, Text: compliance.DisclaimerTexts[key]})
	}
	return out
}

// sortDraftsBySection orders drafts in publication order. Within a section,
// repository order (oldest first) is preserved so regeneration history reads
// top to bottom.
func sortDraftsBySection(drafts []domain.SectionDraft) {
	rank := make(map[string]int, len(domain.SectionOrder))
	for i, section := range domain.SectionOrder {
		rank[section] = i
	}
	sort.SliceStable(drafts, func(i, j int) bool {
		return rank[drafts[i].Section] < rank[drafts[j].Section]
	})
}
