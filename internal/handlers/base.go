package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
	"github.com/smart-grading/grading-service/internal/validator"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries the shared helpers every handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// parseIDParam parses a positive uint path parameter, writing a 400 response
// and returning 0 on failure.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// currentUser extracts the authenticated identity set by the auth middleware.
func (h *BaseHandler) currentUser(c *gin.Context) (*services.TokenClaims, bool) {
	claims, exists := c.Get(contextKeyClaims)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return nil, false
	}
	return claims.(*services.TokenClaims), true
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var validationErrs validator.ValidationErrors
	var permissionErr *services.PermissionError

	switch {
	case errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrDuplicateSubmission),
		errors.Is(err, services.ErrAssignmentFrozen):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrAssignmentInactive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: gin.H{"field": validationErr.Field, "message": validationErr.Message},
		})

	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})

	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: permissionErr.Message})

	default:
		utils.FromContext(c.Request.Context(), h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
