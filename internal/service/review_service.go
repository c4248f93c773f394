package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
	"newsbrief/internal/metrics"
	"newsbrief/internal/repository"
)

// ErrNotReadyForReview rejects approval of an edition whose pipeline has not
// reached the review stage.
var ErrNotReadyForReview = errors.New("edition is not ready for approval")

// ReviewService implements the human review surface: resolving compliance
// flags and approving editions.
type ReviewService struct {
	editions repository.EditionRepository
	drafts   repository.DraftRepository
	flags    repository.FlagRepository
	audit    repository.AuditRepository

	// blockOnAny widens the approval gate from BLOCK flags to every
	// unresolved flag.
	blockOnAny bool
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	editions repository.EditionRepository,
	drafts repository.DraftRepository,
	flags repository.FlagRepository,
	audit repository.AuditRepository,
	blockOnAny bool,
) *ReviewService {
	return &ReviewService{
		editions:   editions,
		drafts:     drafts,
		flags:      flags,
		audit:      audit,
		blockOnAny: blockOnAny,
	}
}

// ResolveFlag marks a flag resolved with the resolver's identity and optional
// note. Resolving an already-resolved flag returns the stored flag unchanged.
func (s *ReviewService) ResolveFlag(ctx context.Context, flagID, resolver, note string) (*domain.ComplianceFlag, error) {
	existing, err := s.flags.Get(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrFlagNotFound
	}
	if existing.Resolved {
		return existing, nil
	}

	resolved, err := s.flags.Resolve(ctx, flagID, resolver, note)
	if err != nil {
		return nil, err
	}

	if err := s.auditResolution(ctx, resolver, resolved); err != nil {
		logger.Error("failed to record flag resolution", "flag_id", flagID, "error", err)
	}
	metrics.ComplianceFlagsResolved.Inc()
	logger.Info("compliance flag resolved",
		"flag_id", flagID, "severity", string(resolved.Severity), "resolver", resolver)
	return resolved, nil
}

func (s *ReviewService) auditResolution(ctx context.Context, resolver string, flag *domain.ComplianceFlag) error {
	draft, err := s.drafts.Get(ctx, flag.SectionDraftID)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("section draft %s not found", flag.SectionDraftID)
	}
	return s.audit.Append(ctx, &domain.AuditEntry{
		EditionID: draft.EditionID,
		Actor:     resolver,
		Action:    domain.AuditFlagResolved,
		Details: map[string]interface{}{
			"flag_id":  flag.ID,
			"severity": string(flag.Severity),
		},
		CreatedAt: time.Now().UTC(),
	})
}

// Approve finalizes an edition. The edition must be in review, and no
// blocking flag may remain unresolved.
func (s *ReviewService) Approve(ctx context.Context, editionID, approver string) error {
	edition, err := s.editions.Get(ctx, editionID)
	if err != nil {
		return err
	}
	if edition == nil {
		return domain.ErrEditionNotFound
	}
	if edition.Terminal() {
		return domain.ErrEditionImmutable
	}
	if edition.Stage != domain.StageReadyForReview {
		return ErrNotReadyForReview
	}

	unresolved, err := s.flags.UnresolvedBlocking(ctx, editionID, s.blockOnAny)
	if err != nil {
		return fmt.Errorf("check unresolved flags: %w", err)
	}
	if len(unresolved) > 0 {
		return &domain.BlockingFlagsUnresolvedError{FlagIDs: unresolved}
	}

	if err := s.editions.Approve(ctx, editionID, approver); err != nil {
		return err
	}

	if err := s.audit.Append(ctx, &domain.AuditEntry{
		EditionID: editionID,
		Actor:     approver,
		Action:    domain.AuditEditionApproved,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		logger.Error("failed to record approval", "edition_id", editionID, "error", err)
	}

	logger.Info("edition approved", "edition_id", editionID, "approver", approver)
	return nil
}
