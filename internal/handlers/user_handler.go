package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
	"github.com/smart-grading/grading-service/internal/validator"
)

type UserHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewUserHandler(authService services.AuthService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Login authenticates a teacher with username/password
// @Summary Teacher login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body validator.TeacherLoginRequest true "Credentials"
// @Success 200 {object} gin.H
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req validator.TeacherLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, token, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// StudentLogin authenticates a student with name + login code
func (h *UserHandler) StudentLogin(c *gin.Context) {
	var req validator.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, token, err := h.authService.AuthenticateStudent(c.Request.Context(), req.Name, req.LoginCode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// AddStudent provisions a student account with a generated login code
func (h *UserHandler) AddStudent(c *gin.Context) {
	var req validator.AddStudentRequest
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

	student, err := h.authService.AddStudent(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// ListStudents lists the teacher's provisioned students
func (h *UserHandler) ListStudents(c *gin.Context) {
	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	students, err := h.authService.ListStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: students})
}

// DeactivateStudent soft-deletes a student the teacher provisioned
func (h *UserHandler) DeactivateStudent(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}

	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.authService.DeactivateStudent(c.Request.Context(), claims.UserID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
