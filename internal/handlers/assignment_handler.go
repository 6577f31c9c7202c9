package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
	"github.com/smart-grading/grading-service/internal/validator"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
	}
}

// CreateAssignment creates a new assignment with its question set
// @Summary Create assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body validator.AssignmentCreateRequest true "Assignment data"
// @Success 201 {object} models.Assignment
// @Failure 400 {object} ErrorResponse
// @Router /assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req validator.AssignmentCreateRequest
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

	assignment, err := h.assignmentService.CreateAssignment(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAssignmentView(assignment, true))
}

// AddQuestions appends questions to an assignment that has no submissions yet
// @Summary Add questions
// @Tags assignments
// @Param id path uint true "Assignment ID"
// @Success 200 {object} models.Assignment
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id}/questions [post]
func (h *AssignmentHandler) AddQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var questions []validator.QuestionCreateRequest
	if err := c.ShouldBindJSON(&questions); err != nil {
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

	assignment, err := h.assignmentService.AddQuestions(c.Request.Context(), claims.UserID, id, questions)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAssignmentView(assignment, true))
}

// GetAssignment retrieves an assignment with its questions in authored order.
// Students get the question set without the answer key.
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting assignment", "assignment_id", id)

	assignment, err := h.assignmentService.GetAssignment(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAssignmentView(assignment, claims.Role == models.RoleTeacher))
}

// ListAssignments lists assignment summaries, newest first
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	filters := repositories.AssignmentFilters{
		IncludeInactive: c.Query("include_inactive") == "true",
	}
	if raw := c.Query("teacher_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			teacherID := uint(id)
			filters.TeacherID = &teacherID
		}
	}
	if raw := c.Query("limit"); raw != "" {
		filters.Limit, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("offset"); raw != "" {
		filters.Offset, _ = strconv.Atoi(raw)
	}

	assignments, total, err := h.assignmentService.ListAssignments(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  assignments,
		"total": total,
	})
}

// DeactivateAssignment soft-hides an assignment
func (h *AssignmentHandler) DeactivateAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.assignmentService.DeactivateAssignment(c.Request.Context(), claims.UserID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
