package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

// Helper functions for type conversions between API types and internal models

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// stringToUUID converts string to types.UUID pointer
func stringToUUID(s string) *types.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	apiUUID := types.UUID(u)
	return &apiUUID
}

// dateToTime converts types.Date to time.Time
func dateToTime(d types.Date) time.Time {
	return d.Time
}

// timeToDate converts time.Time to types.Date
func timeToDate(t time.Time) types.Date {
	return types.Date{Time: t}
}

// currentUser returns the authenticated user ID
func currentUser(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// limitParam returns the limit query parameter, or zero for the service default
func limitParam(c *gin.Context) (int, bool) {
	var params api.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return 0, false
	}
	if params.Limit == nil {
		return 0, true
	}
	return *params.Limit, true
}

// bindJSON decodes the request body, answering 400 on failure
func bindJSON(c *gin.Context, logger *zap.Logger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Error("invalid request body", zap.Error(err))
		badRequest(c, err)
		return false
	}
	return true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request body",
		Details: stringPtr(err.Error()),
	})
}

// respondError maps a service error to a status code and error body. message
// describes the failed operation.
func respondError(c *gin.Context, logger *zap.Logger, err error, message string) {
	var invalid *vitals.InvalidReadingError

	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    "INVALID_READING",
			Message: "Reading is missing values or has non-finite values",
			Details: stringPtr(err.Error()),
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: message,
			Details: stringPtr(err.Error()),
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: message,
			Details: stringPtr(err.Error()),
		})
	case errors.Is(err, service.ErrInsightUnavailable):
		logger.Warn(message, zap.Error(err), zap.String("user_id", currentUser(c)))
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
			Code:    "AI_UNAVAILABLE",
			Message: message,
			Details: stringPtr(err.Error()),
		})
	default:
		logger.Error(message, zap.Error(err), zap.String("user_id", currentUser(c)))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: message,
		})
	}
}
