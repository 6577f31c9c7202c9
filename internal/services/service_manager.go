package services

import (
	"log/slog"
	"time"

	"github.com/smart-grading/grading-service/internal/events"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

// ServiceManager wires all services over one repository.
type ServiceManager struct {
	Assignment AssignmentService
	Submission SubmissionService
	Analytics  AnalyticsService
	Report     ReportService
	Auth       AuthService
}

type ServiceConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func NewServiceManager(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, cfg ServiceConfig) *ServiceManager {
	analytics := NewAnalyticsService(repo, logger)
	return &ServiceManager{
		Assignment: NewAssignmentService(repo, logger, v, publisher),
		Submission: NewSubmissionService(repo, logger, v, publisher),
		Analytics:  analytics,
		Report:     NewReportService(analytics, logger),
		Auth:       NewAuthService(repo, logger, v, cfg.JWTSecret, cfg.TokenTTL),
	}
}
