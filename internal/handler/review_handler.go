package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsbrief/internal/domain"
	"newsbrief/internal/logger"
	"newsbrief/internal/service"
	"newsbrief/internal/validator"
)

// ReviewHandler handles flag resolution and approval HTTP requests.
type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validator
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewServiceInterface, v *validator.Validator) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     v,
	}
}

// ResolveFlag handles POST /api/v1/flags/:id/resolve
func (h *ReviewHandler) ResolveFlag(c *gin.Context) {
	id := c.Param("id")
	if err := h.validator.ValidateFlagID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req validator.ResolveFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.ValidateResolveFlag(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flag, err := h.reviewService.ResolveFlag(c.Request.Context(), id, req.Resolver, req.Note)
	if errors.Is(err, domain.ErrFlagNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "compliance flag not found"})
		return
	}
	if err != nil {
		logger.Error("failed to resolve flag", "flag_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve flag"})
		return
	}

	c.JSON(http.StatusOK, flag)
}

// ApproveEdition handles POST /api/v1/editions/:id/approve
func (h *ReviewHandler) ApproveEdition(c *gin.Context) {
	id := c.Param("id")
	if err := h.validator.ValidateEditionID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req validator.ApproveEditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.ValidateApproveEdition(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.reviewService.Approve(c.Request.Context(), id, req.Approver)
	var blocked *domain.BlockingFlagsUnresolvedError
	switch {
	case errors.Is(err, domain.ErrEditionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
	case errors.As(err, &blocked):
		c.JSON(http.StatusConflict, gin.H{
			"error":            "unresolved blocking flags prevent approval",
			"unresolved_flags": blocked.FlagIDs,
		})
	case errors.Is(err, domain.ErrEditionImmutable):
		c.JSON(http.StatusConflict, gin.H{"error": "edition is already approved"})
	case errors.Is(err, service.ErrNotReadyForReview):
		c.JSON(http.StatusConflict, gin.H{"error": "edition is not ready for approval"})
	case err != nil:
		logger.Error("failed to approve edition", "edition_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve edition"})
	default:
		c.JSON(http.StatusOK, gin.H{"edition_id": id, "status": "approved"})
	}
}
