package domain

import "time"

// EditionStatus is the lifecycle status of a newsletter edition.
type EditionStatus string

const (
	EditionDraft     EditionStatus = "draft"
	EditionReviewing EditionStatus = "reviewing"
	EditionApproved  EditionStatus = "approved"
	EditionFailed    EditionStatus = "failed"
)

// Stage names the pipeline stage an edition is in.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageRetrieving         Stage = "retrieving"
	StageVerifying          Stage = "verifying"
	StageDrafting           Stage = "drafting"
	StageScanningCompliance Stage = "scanning_compliance"
	StageReadyForReview     Stage = "ready_for_review"
	StageApproved           Stage = "approved"
	StageFailed             Stage = "failed"
)

// GenerationMode controls how drafting prompts are assembled.
const (
	ModeAuto   = "auto"
	ModeGuided = "guided"
)

// stageProgress maps each stage to the cumulative progress percentage
// reached once that stage has completed. Weights: retrieval 20,
// verification 15, drafting 35, compliance 30.
var stageProgress = map[Stage]int{
	StageIdle:               0,
	StageRetrieving:         20,
	StageVerifying:          35,
	StageDrafting:           70,
	StageScanningCompliance: 100,
	StageReadyForReview:     100,
	StageApproved:           100,
}

// ProgressAfter returns the progress percentage for a completed stage.
func ProgressAfter(stage Stage) int {
	return stageProgress[stage]
}

// Edition represents one newsletter run from retrieval through approval.
type Edition struct {
	ID             string        `json:"id"`
	Status         EditionStatus `json:"status"`
	Stage          Stage         `json:"pipeline_stage"`
	Progress       int           `json:"pipeline_progress"`
	GenerationMode string        `json:"generation_mode"`
	EditorialBrief *string       `json:"editorial_brief,omitempty"`
	RetrievalNote  *string       `json:"retrieval_note,omitempty"`
	FailureReason  *string       `json:"failure_reason,omitempty"`
	ApprovedBy     *string       `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Terminal reports whether the edition can no longer run a pipeline.
func (e *Edition) Terminal() bool {
	return e.Status == EditionApproved
}

// Running reports whether a pipeline run is in flight for this edition.
func (e *Edition) Running() bool {
	switch e.Stage {
	case StageRetrieving, StageVerifying, StageDrafting, StageScanningCompliance:
		return true
	}
	return false
}
