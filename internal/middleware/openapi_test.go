package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

func validationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	doc, err := api.GetSwagger()
	require.NoError(t, err)

	mw, err := OpenAPIValidationMiddleware(doc, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	router.POST("/api/v1/medications", ok)
	router.GET("/api/v1/vitals", ok)
	router.POST("/api/v1/appointments", ok)
	router.GET("/debug", ok)
	return router
}

func TestOpenAPIValidationMiddleware(t *testing.T) {
	router := validationRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		expected int
	}{
		{"valid medication", "POST", "/api/v1/medications", `{"name":"Losartán","dose":"50 mg","frequency":"daily","times":["08:00"]}`, http.StatusNoContent},
		{"unknown frequency", "POST", "/api/v1/medications", `{"name":"Losartán","dose":"50 mg","frequency":"hourly","times":["08:00"]}`, http.StatusBadRequest},
		{"malformed time", "POST", "/api/v1/medications", `{"name":"Losartán","dose":"50 mg","frequency":"daily","times":["8am"]}`, http.StatusBadRequest},
		{"missing dose", "POST", "/api/v1/medications", `{"name":"Losartán","frequency":"daily","times":["08:00"]}`, http.StatusBadRequest},
		{"valid limit", "GET", "/api/v1/vitals?limit=10", "", http.StatusNoContent},
		{"limit too large", "GET", "/api/v1/vitals?limit=100000", "", http.StatusBadRequest},
		{"limit not a number", "GET", "/api/v1/vitals?limit=ten", "", http.StatusBadRequest},
		{"valid appointment", "POST", "/api/v1/appointments", `{"date":"2024-05-10","time":"09:30","type":"Cardiología"}`, http.StatusNoContent},
		{"undocumented route", "GET", "/debug", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code, w.Body.String())
			if tt.expected == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
			}
		})
	}
}

func TestOpenAPIValidationMiddleware_BodyStillReadable(t *testing.T) {
	doc, err := api.GetSwagger()
	require.NoError(t, err)
	mw, err := OpenAPIValidationMiddleware(doc, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.POST("/api/v1/medications", func(c *gin.Context) {
		var req api.MedicationRequest
		require.NoError(t, c.ShouldBindJSON(&req))
		c.String(http.StatusOK, req.Name)
	})

	req := httptest.NewRequest("POST", "/api/v1/medications", strings.NewReader(`{"name":"Metformina","dose":"850 mg","frequency":"twice_daily","times":["08:00","20:00"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Metformina", w.Body.String())
}
