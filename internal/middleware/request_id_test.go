package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"newsbrief/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		if capture != nil {
			*capture = middleware.GetRequestID(c)
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestID_GeneratesUUIDWhenAbsent(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusOK, w.Code)
	headerID := w.Header().Get(middleware.RequestIDHeader)
	assert.Len(t, headerID, 36)
	assert.Equal(t, headerID, seen)
}

func TestRequestID_HonorsClientProvidedID(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-42", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "upstream-42", seen)
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		require.Equal(t, http.StatusOK, w.Code)
		ids[seen] = true
	}
	assert.Len(t, ids, 3)
}

func TestGetRequestID_OutsideMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, middleware.GetRequestID(c))

	c.Set(middleware.RequestIDKey, "fixed-id")
	assert.Equal(t, "fixed-id", middleware.GetRequestID(c))
}
