package pipeline

import (
	"context"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/repository"
	"newsbrief/internal/scoring"
)

// StoreWriter implements Persistence over the repository store. Each stage's
// rows, the stage transition and the audit entry commit in one transaction.
type StoreWriter struct {
	store *repository.Store
}

// NewStoreWriter creates a StoreWriter.
func NewStoreWriter(store *repository.Store) *StoreWriter {
	return &StoreWriter{store: store}
}

func (w *StoreWriter) Edition(ctx context.Context, id string) (*domain.Edition, error) {
	return w.store.Editions.Get(ctx, id)
}

func (w *StoreWriter) MarkRunning(ctx context.Context, editionID string) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Editions.UpdateStage(ctx, editionID, domain.StageRetrieving, 0); err != nil {
			return err
		}
		return tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditPipelineStarted, nil))
	})
}

func (w *StoreWriter) SaveRetrieval(ctx context.Context, editionID string, articles []domain.Article, note string, failedProviders []string) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if len(articles) > 0 {
			if err := tx.Articles.BulkInsert(ctx, articles); err != nil {
				return err
			}
		}
		if note != "" {
			if err := tx.Editions.SetRetrievalNote(ctx, editionID, note); err != nil {
				return err
			}
		}
		if err := tx.Editions.UpdateStage(ctx, editionID, domain.StageVerifying,
			domain.ProgressAfter(domain.StageRetrieving)); err != nil {
			return err
		}
		details := map[string]interface{}{"articles": len(articles)}
		if len(failedProviders) > 0 {
			details["failed_providers"] = failedProviders
		}
		if note != "" {
			details["note"] = note
		}
		return tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditRetrievalCompleted, details))
	})
}

func (w *StoreWriter) SaveVerification(ctx context.Context, editionID string, articles []domain.Article, summary scoring.Summary) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if len(articles) > 0 {
			if err := tx.Articles.UpdateVerification(ctx, articles); err != nil {
				return err
			}
		}
		if err := tx.Editions.UpdateStage(ctx, editionID, domain.StageDrafting,
			domain.ProgressAfter(domain.StageVerifying)); err != nil {
			return err
		}
		details := map[string]interface{}{
			"tier1":         summary.TierCounts[1],
			"tier2":         summary.TierCounts[2],
			"tier3":         summary.TierCounts[3],
			"paywalled":     summary.Paywalled,
			"dead_links":    summary.DeadLinks,
			"duplicates":    summary.Duplicates,
			"uncategorized": summary.Uncategorized,
		}
		return tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditVerificationCompleted, details))
	})
}

func (w *StoreWriter) SaveDrafts(ctx context.Context, editionID string, drafts []domain.SectionDraft) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		failed := 0
		for i := range drafts {
			if drafts[i].GenerationFailed {
				failed++
			}
			if err := tx.Drafts.Insert(ctx, &drafts[i]); err != nil {
				return err
			}
		}
		if err := tx.Editions.UpdateStage(ctx, editionID, domain.StageScanningCompliance,
			domain.ProgressAfter(domain.StageDrafting)); err != nil {
			return err
		}
		details := map[string]interface{}{"sections": len(drafts), "failed_sections": failed}
		return tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditDraftingCompleted, details))
	})
}

func (w *StoreWriter) SaveCompliance(ctx context.Context, editionID string, flags []domain.ComplianceFlag, pass2 map[string]domain.Pass2State) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if len(flags) > 0 {
			if err := tx.Flags.BulkInsert(ctx, flags); err != nil {
				return err
			}
		}
		for draftID, state := range pass2 {
			if err := tx.Drafts.SetPass2State(ctx, draftID, state); err != nil {
				return err
			}
		}
		if err := tx.Editions.UpdateStage(ctx, editionID, domain.StageReadyForReview,
			domain.ProgressAfter(domain.StageScanningCompliance)); err != nil {
			return err
		}
		if err := tx.Editions.SetStatus(ctx, editionID, domain.EditionReviewing,
			domain.StageReadyForReview, nil); err != nil {
			return err
		}

		blocking := 0
		for i := range flags {
			if flags[i].Blocking() {
				blocking++
			}
		}
		details := map[string]interface{}{"flags": len(flags), "blocking": blocking}
		if err := tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditComplianceCompleted, details)); err != nil {
			return err
		}
		return tx.Audit.Append(ctx, systemEntry(editionID, domain.AuditReadyForReview, nil))
	})
}

func (w *StoreWriter) MarkFailed(ctx context.Context, editionID, reason string, cancelled bool) error {
	return w.store.WithTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Editions.SetStatus(ctx, editionID, domain.EditionFailed,
			domain.StageFailed, &reason); err != nil {
			return err
		}
		action := domain.AuditPipelineFailed
		if cancelled {
			action = domain.AuditPipelineCancelled
		}
		return tx.Audit.Append(ctx, systemEntry(editionID, action,
			map[string]interface{}{"reason": reason}))
	})
}

func systemEntry(editionID, action string, details map[string]interface{}) *domain.AuditEntry {
	return &domain.AuditEntry{
		EditionID: editionID,
		Actor:     domain.SystemActor,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}
