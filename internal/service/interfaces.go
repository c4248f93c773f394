package service

import (
	"context"

	"newsbrief/internal/domain"
)

// PipelineRunner is the pipeline surface the edition service drives.
type PipelineRunner interface {
	Start(ctx context.Context, editionID string) error
	Cancel(editionID string) error
	Running(editionID string) bool
}

// EditionServiceInterface defines the interface for edition operations.
// Used for dependency injection and mocking in tests.
type EditionServiceInterface interface {
	// Create registers a new edition in draft state.
	Create(ctx context.Context, input CreateEditionInput) (*domain.Edition, error)
	// List returns all editions, newest first.
	List(ctx context.Context) ([]domain.Edition, error)
	// Get returns the full review detail for one edition.
	Get(ctx context.Context, id string) (*EditionDetail, error)
	// Start launches the generation pipeline for an edition.
	Start(ctx context.Context, id string) error
	// Cancel stops an in-flight pipeline run.
	Cancel(ctx context.Context, id string) error
}

// ReviewServiceInterface defines the interface for the human review surface.
// Used for dependency injection and mocking in tests.
type ReviewServiceInterface interface {
	// ResolveFlag marks a compliance flag resolved. Re-resolving is a no-op.
	ResolveFlag(ctx context.Context, flagID, resolver, note string) (*domain.ComplianceFlag, error)
	// Approve finalizes an edition. It fails while blocking flags remain
	// unresolved.
	Approve(ctx context.Context, editionID, approver string) error
}
