package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/domain"
	"newsbrief/internal/mocks"
	"newsbrief/internal/validator"
)

func newReviewRouter(svc *mocks.MockReviewService) *gin.Engine {
	h := NewReviewHandler(svc, validator.NewValidator())
	router := gin.New()
	router.POST("/api/v1/flags/:id/resolve", h.ResolveFlag)
	router.POST("/api/v1/editions/:id/approve", h.ApproveEdition)
	return router
}

func TestReviewHandler_ResolveFlag(t *testing.T) {
	t.Run("resolves flag", func(t *testing.T) {
		id := uuid.NewString()
		resolvedBy := "jchen"
		mockService := new(mocks.MockReviewService)
		mockService.On("ResolveFlag", mock.Anything, id, "jchen", "reworded").
			Return(&domain.ComplianceFlag{
				ID:         id,
				Severity:   domain.SeverityBlock,
				Resolved:   true,
				ResolvedBy: &resolvedBy,
			}, nil)

		router := newReviewRouter(mockService)
		w := postJSON(router, "/api/v1/flags/"+id+"/resolve", gin.H{
			"resolver": "jchen",
			"note":     "reworded",
		})

		require.Equal(t, http.StatusOK, w.Code)
		var response domain.ComplianceFlag
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Resolved)
		mockService.AssertExpectations(t)
	})

	t.Run("requires resolver identity", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		router := newReviewRouter(mockService)

		w := postJSON(router, "/api/v1/flags/"+id+"/resolve", gin.H{"note": "no resolver"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "ResolveFlag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns 404 for unknown flag", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		mockService.On("ResolveFlag", mock.Anything, id, "jchen", "").
			Return(nil, domain.ErrFlagNotFound)

		router := newReviewRouter(mockService)
		w := postJSON(router, "/api/v1/flags/"+id+"/resolve", gin.H{"resolver": "jchen"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReviewHandler_ApproveEdition(t *testing.T) {
	t.Run("approves edition", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		mockService.On("Approve", mock.Anything, id, "mwhitfield").Return(nil)

		router := newReviewRouter(mockService)
		w := postJSON(router, "/api/v1/editions/"+id+"/approve", gin.H{"approver": "mwhitfield"})

		require.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("conflict with unresolved blocking flags", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		mockService.On("Approve", mock.Anything, id, "mwhitfield").
			Return(&domain.BlockingFlagsUnresolvedError{FlagIDs: []string{"f1", "f2"}})

		router := newReviewRouter(mockService)
		w := postJSON(router, "/api/v1/editions/"+id+"/approve", gin.H{"approver": "mwhitfield"})

		require.Equal(t, http.StatusConflict, w.Code)
		var response struct {
			Error           string   `json:"error"`
			UnresolvedFlags []string `json:"unresolved_flags"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, []string{"f1", "f2"}, response.UnresolvedFlags)
	})

	t.Run("conflict when already approved", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		mockService.On("Approve", mock.Anything, id, "mwhitfield").
			Return(domain.ErrEditionImmutable)

		router := newReviewRouter(mockService)
		w := postJSON(router, "/api/v1/editions/"+id+"/approve", gin.H{"approver": "mwhitfield"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("requires approver identity", func(t *testing.T) {
		id := uuid.NewString()
		mockService := new(mocks.MockReviewService)
		router := newReviewRouter(mockService)

		w := postJSON(router, "/api/v1/editions/"+id+"/approve", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
	})
}
