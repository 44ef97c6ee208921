// Package handler contains the gin handlers of the ledger API.
package handler

import (
	"errors"
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMessage sends a 200 response that only carries a message
func (h *BaseHandler) SuccessWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(message))
}

// Paginated sends a 200 response with pagination metadata
func (h *BaseHandler) Paginated(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind call with field-level details
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", middleware.ValidationDetails(err)))
}

// HandleError converts an error to an HTTP response. Domain errors keep
// their code and message; anything else is logged and reported as a
// generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		resp := dto.NewErrorResponse(domainErr.Code, domainErr.Message)
		for field, message := range domainErr.Fields {
			resp.Errors = append(resp.Errors, dto.ErrorDetail{Code: domainErr.Code, Field: field, Message: message})
		}
		c.JSON(dto.StatusForKind(domainErr.Kind), resp)
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// pathID parses a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// hardDelete reports whether ?hard=true was passed
func hardDelete(c *gin.Context) bool {
	return c.Query("hard") == "true"
}
