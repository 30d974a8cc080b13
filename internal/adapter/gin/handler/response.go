package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portunus/internal/adapter/gin/middleware"
	"portunus/internal/domain/pagination"
	apperrors "portunus/pkg/errors"
	"portunus/pkg/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"total_pages"`
}

// IDResponse is returned by create, update and delete endpoints.
type IDResponse struct {
	ID int64 `json:"id"`
}

func toPagination(p *pagination.Pagination) *Pagination {
	if p == nil {
		return nil
	}
	return &Pagination{
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// handleError converts usecase errors to HTTP responses. Internal details are not exposed.
func handleError(c *gin.Context, log *zap.Logger, op string, err error) {
	code := apperrors.HTTPStatus(err)
	l := logger.WithContext(c.Request.Context(), log)

	if code >= http.StatusInternalServerError {
		l.Error(op+" failed", zap.Error(err))
		c.JSON(code, ErrorResponse{
			Error:   apperrors.Code(err),
			Message: "An internal error occurred",
		})
		return
	}

	l.Warn(op+" rejected", zap.Int("status", code), zap.Error(err))
	c.JSON(code, ErrorResponse{
		Error:   apperrors.Code(err),
		Message: err.Error(),
	})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

// parseID reads the :id path parameter, answering 400 itself when it is not a number.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "ID must be a positive number",
		})
		return 0, false
	}
	return id, true
}

// pageParams reads page, limit and query from the query string. Clamping happens in the use case.
func pageParams(c *gin.Context) (query string, page, limit int64) {
	query = c.Query("query")
	page, _ = strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", strconv.FormatInt(pagination.DefaultLimit, 10)), 10, 64)
	return query, page, limit
}

// callerID returns the authenticated caller, answering 401 itself when there is none.
func callerID(c *gin.Context) (int64, bool, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return 0, false, false
	}
	return claims.UserID, claims.IsAdmin, true
}
