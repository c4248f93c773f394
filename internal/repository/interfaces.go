package repository

import (
	"context"

	"newsbrief/internal/domain"
)

// EditionRepository defines methods for edition data access.
type EditionRepository interface {
	Create(ctx context.Context, edition *domain.Edition) error
	Get(ctx context.Context, id string) (*domain.Edition, error)
	List(ctx context.Context) ([]domain.Edition, error)
	// UpdateStage advances the pipeline stage. Progress never decreases:
	// the stored value is the greater of the current and supplied values.
	UpdateStage(ctx context.Context, id string, stage domain.Stage, progress int) error
	SetStatus(ctx context.Context, id string, status domain.EditionStatus, stage domain.Stage, failureReason *string) error
	SetRetrievalNote(ctx context.Context, id string, note string) error
	Approve(ctx context.Context, id, approver string) error
}

// ArticleRepository defines methods for article data access.
type ArticleRepository interface {
	BulkInsert(ctx context.Context, articles []domain.Article) error
	// ListByEdition returns articles ranked by quality score descending,
	// trust tier ascending as the secondary key.
	ListByEdition(ctx context.Context, editionID string) ([]domain.Article, error)
	UpdateVerification(ctx context.Context, articles []domain.Article) error
}

// DraftRepository defines methods for section draft data access.
type DraftRepository interface {
	Insert(ctx context.Context, draft *domain.SectionDraft) error
	Get(ctx context.Context, id string) (*domain.SectionDraft, error)
	ListByEdition(ctx context.Context, editionID string) ([]domain.SectionDraft, error)
	SetPass2State(ctx context.Context, draftID string, state domain.Pass2State) error
}

// FlagRepository defines methods for compliance flag data access.
type FlagRepository interface {
	BulkInsert(ctx context.Context, flags []domain.ComplianceFlag) error
	Get(ctx context.Context, id string) (*domain.ComplianceFlag, error)
	ListByEdition(ctx context.Context, editionID string) ([]domain.ComplianceFlag, error)
	// Resolve marks a flag resolved. Resolving an already-resolved flag is
	// a no-op that returns the stored flag unchanged.
	Resolve(ctx context.Context, id, resolver, note string) (*domain.ComplianceFlag, error)
	// UnresolvedBlocking returns ids of unresolved flags that prevent
	// approval. With anySeverity false only BLOCK flags count.
	UnresolvedBlocking(ctx context.Context, editionID string, anySeverity bool) ([]string, error)
}

// AuditRepository defines methods for the append-only audit log.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByEdition(ctx context.Context, editionID string) ([]domain.AuditEntry, error)
}
