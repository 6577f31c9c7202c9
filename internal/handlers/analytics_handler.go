package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-grading/grading-service/internal/services"
	"github.com/smart-grading/grading-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	reportService    services.ReportService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, reportService services.ReportService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		reportService:    reportService,
	}
}

// MyTrend returns the calling student's performance history
func (h *AnalyticsHandler) MyTrend(c *gin.Context) {
	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.StudentTrend(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// StudentTrend returns one student's performance history (teacher view)
func (h *AnalyticsHandler) StudentTrend(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}

	report, err := h.analyticsService.StudentTrend(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// AssignmentStatistics returns the score aggregate for one assignment
func (h *AnalyticsHandler) AssignmentStatistics(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "id")
	if assignmentID == 0 {
		return
	}

	h.LogRequest(c, "Computing assignment statistics", "assignment_id", assignmentID)

	stats, err := h.analyticsService.AssignmentStatistics(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ClassSummary aggregates the teacher's roster
func (h *AnalyticsHandler) ClassSummary(c *gin.Context) {
	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.ClassSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportClassSummary streams the class summary as an xlsx workbook
func (h *AnalyticsHandler) ExportClassSummary(c *gin.Context) {
	claims, ok := h.currentUser(c)
	if !ok {
		return
	}

	data, err := h.reportService.ExportClassSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("class-summary-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
