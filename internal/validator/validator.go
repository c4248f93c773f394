package validator

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"newsbrief/internal/domain"
)

var validModes = []interface{}{domain.ModeAuto, domain.ModeGuided}

// MaxBriefWords caps the editorial brief length for guided generation.
const MaxBriefWords = 300

// CreateEditionRequest is the payload for creating an edition.
type CreateEditionRequest struct {
	GenerationMode string `json:"generation_mode"`
	EditorialBrief string `json:"editorial_brief"`
}

// ResolveFlagRequest is the payload for resolving a compliance flag.
type ResolveFlagRequest struct {
	Resolver string `json:"resolver"`
	Note     string `json:"note"`
}

// ApproveEditionRequest is the payload for approving an edition.
type ApproveEditionRequest struct {
	Approver string `json:"approver"`
}

// Validator provides validation methods for request payloads.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateEdition validates an edition creation payload. An empty mode
// is allowed and defaults to auto downstream.
func (v *Validator) ValidateCreateEdition(r *CreateEditionRequest) error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.GenerationMode,
			validation.In(validModes...).Error("invalid_generation_mode"),
		),
		validation.Field(&r.EditorialBrief,
			validation.By(wordCountRule(MaxBriefWords)),
		),
	)
	if err != nil {
		return err
	}

	// Custom rule: guided generation needs a brief to guide it
	if r.GenerationMode == domain.ModeGuided && strings.TrimSpace(r.EditorialBrief) == "" {
		return validation.Errors{
			"editorial_brief": validation.NewError("guided_requires_brief", "guided mode requires an editorial brief"),
		}
	}

	// Custom rule: a brief without guided mode would be silently ignored
	if r.GenerationMode != domain.ModeGuided && strings.TrimSpace(r.EditorialBrief) != "" {
		return validation.Errors{
			"editorial_brief": validation.NewError("brief_requires_guided", "editorial brief is only used in guided mode"),
		}
	}

	return nil
}

// ValidateResolveFlag validates a flag resolution payload.
func (v *Validator) ValidateResolveFlag(r *ResolveFlagRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Resolver,
			validation.Required.Error("resolver_required"),
			validation.Length(1, 128).Error("resolver_too_long"),
		),
		validation.Field(&r.Note,
			validation.Length(0, 2000).Error("note_too_long"),
		),
	)
}

// ValidateApproveEdition validates an approval payload.
func (v *Validator) ValidateApproveEdition(r *ApproveEditionRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Approver,
			validation.Required.Error("approver_required"),
			validation.Length(1, 128).Error("approver_too_long"),
		),
	)
}

// ValidateEditionID validates a path parameter as a UUID.
func (v *Validator) ValidateEditionID(id string) error {
	return validation.Validate(id,
		validation.Required.Error("edition_id_required"),
		is.UUIDv4.Error("invalid_edition_id"),
	)
}

// ValidateFlagID validates a flag path parameter as a UUID.
func (v *Validator) ValidateFlagID(id string) error {
	return validation.Validate(id,
		validation.Required.Error("flag_id_required"),
		is.UUIDv4.Error("invalid_flag_id"),
	)
}

// wordCountRule creates a validation rule for max word count.
func wordCountRule(maxWords int) validation.RuleFunc {
	return func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		wordCount := len(strings.Fields(strings.TrimSpace(s)))
		if wordCount > maxWords {
			return validation.NewError("brief_too_long", "editorial brief exceeds the word limit")
		}
		return nil
	}
}
