package domain

import "time"

// Audit actions recorded by the pipeline and review surface.
const (
	AuditPipelineStarted       = "pipeline_started"
	AuditRetrievalCompleted    = "retrieval_completed"
	AuditVerificationCompleted = "verification_completed"
	AuditDraftingCompleted     = "drafting_completed"
	AuditComplianceCompleted   = "compliance_completed"
	AuditReadyForReview        = "ready_for_review"
	AuditPipelineFailed        = "pipeline_failed"
	AuditPipelineCancelled     = "pipeline_cancelled"
	AuditFlagResolved          = "flag_resolved"
	AuditEditionApproved       = "edition_approved"
)

// SystemActor identifies pipeline-originated audit entries.
const SystemActor = "system"

// AuditEntry is one append-only record of a state-changing action.
// Entries are never updated or deleted.
type AuditEntry struct {
	ID        int64                  `json:"id"`
	EditionID string                 `json:"edition_id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
