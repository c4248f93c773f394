package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/service"
	"newsbrief/internal/validator"
)

// EditionHandler handles edition lifecycle HTTP requests.
type EditionHandler struct {
	editionService service.EditionServiceInterface
	validator      *validator.Validator
}

// NewEditionHandler creates a new EditionHandler.
func NewEditionHandler(editionService service.EditionServiceInterface, v *validator.Validator) *EditionHandler {
	return &EditionHandler{
		editionService: editionService,
		validator:      v,
	}
}

// EditionResponse represents an edition in the API response.
type EditionResponse struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	PipelineStage  string  `json:"pipeline_stage"`
	Progress       int     `json:"pipeline_progress"`
	GenerationMode string  `json:"generation_mode"`
	EditorialBrief *string `json:"editorial_brief,omitempty"`
	RetrievalNote  *string `json:"retrieval_note,omitempty"`
	FailureReason  *string `json:"failure_reason,omitempty"`
	ApprovedBy     *string `json:"approved_by,omitempty"`
	ApprovedAt     *string `json:"approved_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// toEditionResponse converts a domain.Edition to an EditionResponse.
func toEditionResponse(e *domain.Edition) EditionResponse {
	response := EditionResponse{
		ID:             e.ID,
		Status:         string(e.Status),
		PipelineStage:  string(e.Stage),
		Progress:       e.Progress,
		GenerationMode: e.GenerationMode,
		EditorialBrief: e.EditorialBrief,
		RetrievalNote:  e.RetrievalNote,
		FailureReason:  e.FailureReason,
		ApprovedBy:     e.ApprovedBy,
		CreatedAt:      e.CreatedAt.Format(TimeFormat),
		UpdatedAt:      e.UpdatedAt.Format(TimeFormat),
	}
	if e.ApprovedAt != nil {
		approvedAt := e.ApprovedAt.Format(TimeFormat)
		response.ApprovedAt = &approvedAt
	}
	return response
}

// EditionDetailResponse is the full review view of one edition.
type EditionDetailResponse struct {
	Edition     EditionResponse         `json:"edition"`
	Articles    []domain.Article        `json:"articles"`
	Drafts      []domain.SectionDraft   `json:"drafts"`
	Flags       []domain.ComplianceFlag `json:"flags"`
	Disclaimers []service.Disclaimer    `json:"disclaimers"`
	AuditTrail  []domain.AuditEntry     `json:"audit_trail"`
}

// CreateEdition handles POST /api/v1/editions
func (h *EditionHandler) CreateEdition(c *gin.Context) {
	var req validator.CreateEditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validator.ValidateCreateEdition(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edition, err := h.editionService.Create(c.Request.Context(), service.CreateEditionInput{
		GenerationMode: req.GenerationMode,
		EditorialBrief: req.EditorialBrief,
	})
	if err != nil {
		logger.Error("failed to create edition", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create edition"})
		return
	}

	c.JSON(http.StatusCreated, toEditionResponse(edition))
}

// ListEditions handles GET /api/v1/editions
func (h *EditionHandler) ListEditions(c *gin.Context) {
	editions, err := h.editionService.List(c.Request.Context())
	if err != nil {
		logger.Error("failed to list editions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list editions"})
		return
	}

	responses := make([]EditionResponse, 0, len(editions))
	for i := range editions {
		responses = append(responses, toEditionResponse(&editions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"editions": responses})
}

// GetEdition handles GET /api/v1/editions/:id
func (h *EditionHandler) GetEdition(c *gin.Context) {
	detail, ok := h.detail(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, EditionDetailResponse{
		Edition:     toEditionResponse(&detail.Edition),
		Articles:    detail.Articles,
		Drafts:      detail.Drafts,
		Flags:       detail.Flags,
		Disclaimers: detail.Disclaimers,
		AuditTrail:  detail.AuditTrail,
	})
}

// detail loads the full edition view shared by the subresource endpoints.
func (h *EditionHandler) detail(c *gin.Context) (*service.EditionDetail, bool) {
	id := c.Param("id")
	if err := h.validator.ValidateEditionID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	detail, err := h.editionService.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrEditionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
		return nil, false
	}
	if err != nil {
		logger.Error("failed to get edition", "edition_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve edition"})
		return nil, false
	}
	return detail, true
}

// ListArticles handles GET /api/v1/editions/:id/articles
func (h *EditionHandler) ListArticles(c *gin.Context) {
	detail, ok := h.detail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": detail.Articles})
}

// ListDrafts handles GET /api/v1/editions/:id/drafts
func (h *EditionHandler) ListDrafts(c *gin.Context) {
	detail, ok := h.detail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": detail.Drafts, "disclaimers": detail.Disclaimers})
}

// ListFlags handles GET /api/v1/editions/:id/flags
func (h *EditionHandler) ListFlags(c *gin.Context) {
	detail, ok := h.detail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": detail.Flags})
}

// ListAuditTrail handles GET /api/v1/editions/:id/audit
func (h *EditionHandler) ListAuditTrail(c *gin.Context) {
	detail, ok := h.detail(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_trail": detail.AuditTrail})
}

// StartEdition handles POST /api/v1/editions/:id/start
func (h *EditionHandler) StartEdition(c *gin.Context) {
	id := c.Param("id")
	if err := h.validator.ValidateEditionID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.editionService.Start(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrEditionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
	case errors.Is(err, domain.ErrPipelineAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "pipeline already running for this edition"})
	case errors.Is(err, domain.ErrEditionImmutable):
		c.JSON(http.StatusConflict, gin.H{"error": "edition is approved and immutable"})
	case err != nil:
		logger.Error("failed to start pipeline", "edition_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start pipeline"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"edition_id": id, "status": "started"})
	}
}

// CancelEdition handles POST /api/v1/editions/:id/cancel
func (h *EditionHandler) CancelEdition(c *gin.Context) {
	id := c.Param("id")
	if err := h.validator.ValidateEditionID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.editionService.Cancel(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrEditionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
	case errors.Is(err, pipeline.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "no pipeline run in flight for this edition"})
	case err != nil:
		logger.Error("failed to cancel pipeline", "edition_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel pipeline"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"edition_id": id, "status": "cancelling"})
	}
}
