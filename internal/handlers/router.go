package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
)

type HandlerManager struct {
	assignmentHandler *AssignmentHandler
	submissionHandler *SubmissionHandler
	analyticsHandler  *AnalyticsHandler
	userHandler       *UserHandler
	authMiddleware    *AuthMiddleware
	repo              repositories.Repository
}

func NewHandlerManager(sm *services.ServiceManager, logger utils.Logger, repo repositories.Repository) *HandlerManager {
	return &HandlerManager{
		assignmentHandler: NewAssignmentHandler(sm.Assignment, logger),
		submissionHandler: NewSubmissionHandler(sm.Submission, logger),
		analyticsHandler:  NewAnalyticsHandler(sm.Analytics, sm.Report, logger),
		userHandler:       NewUserHandler(sm.Auth, logger),
		authMiddleware:    NewAuthMiddleware(sm.Auth),
		repo:              repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	// Public auth endpoints
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", hm.userHandler.Login)
		auth.POST("/student-login", hm.userHandler.StudentLogin)
	}

	teacherOnly := hm.authMiddleware.RequireRole(models.RoleTeacher)
	studentOnly := hm.authMiddleware.RequireRole(models.RoleStudent)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.Authenticate())
	{
		assignments := v1.Group("/assignments")
		{
			assignments.POST("", teacherOnly, hm.assignmentHandler.CreateAssignment)
			assignments.POST("/:id/questions", teacherOnly, hm.assignmentHandler.AddQuestions)
			assignments.DELETE("/:id", teacherOnly, hm.assignmentHandler.DeactivateAssignment)

			assignments.GET("", hm.assignmentHandler.ListAssignments)
			assignments.GET("/:id", hm.assignmentHandler.GetAssignment)

			assignments.GET("/:id/submissions", teacherOnly, hm.submissionHandler.ListByAssignment)
			assignments.GET("/:id/stats", teacherOnly, hm.analyticsHandler.AssignmentStatistics)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.POST("", studentOnly, hm.submissionHandler.Submit)
			submissions.GET("/mine", studentOnly, hm.submissionHandler.ListMine)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.POST("/:id/grade", teacherOnly, hm.submissionHandler.GradeSubjective)
			submissions.POST("/:id/reopen", teacherOnly, hm.submissionHandler.Reopen)
		}

		students := v1.Group("/students")
		{
			students.POST("", teacherOnly, hm.userHandler.AddStudent)
			students.GET("", teacherOnly, hm.userHandler.ListStudents)
			students.DELETE("/:id", teacherOnly, hm.userHandler.DeactivateStudent)
			students.GET("/:id/trend", teacherOnly, hm.analyticsHandler.StudentTrend)
		}

		me := v1.Group("/me", studentOnly)
		{
			me.GET("/trend", hm.analyticsHandler.MyTrend)
		}

		class := v1.Group("/class", teacherOnly)
		{
			class.GET("/summary", hm.analyticsHandler.ClassSummary)
			class.GET("/summary/export", hm.analyticsHandler.ExportClassSummary)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "grading-service",
	})
}
