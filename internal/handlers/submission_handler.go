package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
	"github.com/smart-grading/grading-service/internal/validator"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// Submit scores and stores a student's answer set
// @Summary Submit answers
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body validator.SubmitRequest true "Answer set"
// @Success 201 {object} services.SubmissionResult
// @Failure 409 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req validator.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSubmission retrieves one submission with its per-question breakdown
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.submissionService.GetSubmission(c.Request.Context(), claims.UserID, claims.Role, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListByAssignment lists all submissions to one of the teacher's assignments
func (h *SubmissionHandler) ListByAssignment(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "id")
	if assignmentID == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	results, err := h.submissionService.ListByAssignment(c.Request.Context(), claims.UserID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results})
}

// ListMine lists the calling student's own submissions
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	results, err := h.submissionService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results})
}

// GradeSubjective records a teacher's grade for one subjective answer
// @Summary Grade subjective answer
// @Tags submissions
// @Accept json
// @Produce json
// @Param grade body validator.GradeSubjectiveRequest true "Grade"
// @Success 200 {object} services.SubmissionResult
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *SubmissionHandler) GradeSubjective(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.GradeSubjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.SubmissionID = id

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.submissionService.GradeSubjective(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Reopen marks a submission as replaceable by its student
func (h *SubmissionHandler) Reopen(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.submissionService.Reopen(c.Request.Context(), claims.UserID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reopened"})
}
