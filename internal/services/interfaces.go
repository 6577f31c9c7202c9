package services

import (
	"context"
	"time"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

// ===== RESULT STRUCTS =====

// QuestionResult is the graded view of one answer within a submission.
type QuestionResult struct {
	QuestionID    uint                `json:"question_id"`
	Position      int                 `json:"position"`
	Kind          models.QuestionKind `json:"kind"`
	Prompt        string              `json:"prompt"`
	Response      string              `json:"response"`
	IsCorrect     *bool               `json:"is_correct"`
	AwardedPoints float64             `json:"awarded_points"`
	MaxPoints     int                 `json:"max_points"`
	Feedback      *string             `json:"feedback,omitempty"`
}

// SubmissionResult is a submission together with its per-question breakdown.
type SubmissionResult struct {
	SubmissionID    uint                 `json:"submission_id"`
	AssignmentID    uint                 `json:"assignment_id"`
	AssignmentTitle string               `json:"assignment_title,omitempty"`
	StudentID       uint                 `json:"student_id"`
	StudentName     string               `json:"student_name,omitempty"`
	SubmittedAt     time.Time            `json:"submitted_at"`
	TotalScore      float64              `json:"total_score"`
	MaxScore        int                  `json:"max_score"`
	Status          models.GradingStatus `json:"status"`
	SubmissionCount int                  `json:"submission_count"`
	Questions       []QuestionResult     `json:"questions,omitempty"`
}

// TrendReport is a student's performance history across assignments.
type TrendReport struct {
	StudentID      uint                      `json:"student_id"`
	Points         []repositories.TrendPoint `json:"points"`
	AveragePercent float64                   `json:"average_percent"`
	Trend          string                    `json:"trend"`
}

// AssignmentStatistics is the per-assignment score aggregate. All fields are
// zero-valued when the assignment has no gradable submissions.
type AssignmentStatistics struct {
	AssignmentID    uint                               `json:"assignment_id"`
	Title           string                             `json:"title"`
	SubmissionCount int                                `json:"submission_count"`
	MeanScore       float64                            `json:"mean_score"`
	MedianScore     float64                            `json:"median_score"`
	MinScore        float64                            `json:"min_score"`
	MaxScore        float64                            `json:"max_score"`
	MaxPossible     int                                `json:"max_possible"`
	QuestionStats   []repositories.QuestionCorrectRate `json:"question_stats"`
}

// StudentSummary is one student's aggregate row in a class summary.
type StudentSummary struct {
	StudentID       uint    `json:"student_id"`
	Name            string  `json:"name"`
	SubmissionCount int     `json:"submission_count"`
	AveragePercent  float64 `json:"average_percent"`
	GradeLetter     string  `json:"grade_letter"`
}

// ClassSummary aggregates every student a teacher has provisioned.
type ClassSummary struct {
	TeacherID         uint             `json:"teacher_id"`
	Students          []StudentSummary `json:"students"`
	ClassAverage      float64          `json:"class_average"`
	PassRate          float64          `json:"pass_rate"`
	GradeDistribution map[string]int   `json:"grade_distribution"`
}

// TokenClaims is the decoded identity carried by an access token.
type TokenClaims struct {
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
	Name   string          `json:"name"`
}

// ===== SERVICE INTERFACES =====

type AssignmentService interface {
	CreateAssignment(ctx context.Context, teacherID uint, req *validator.AssignmentCreateRequest) (*models.Assignment, error)
	// AddQuestions appends questions to an assignment nobody has submitted
	// to yet. Returns ErrAssignmentFrozen once any submission exists.
	AddQuestions(ctx context.Context, teacherID, assignmentID uint, questions []validator.QuestionCreateRequest) (*models.Assignment, error)
	GetAssignment(ctx context.Context, id uint) (*models.Assignment, error)
	ListAssignments(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error)
	DeactivateAssignment(ctx context.Context, teacherID, id uint) error
}

type SubmissionService interface {
	Submit(ctx context.Context, studentID uint, req *validator.SubmitRequest) (*SubmissionResult, error)
	GetSubmission(ctx context.Context, requesterID uint, requesterRole models.UserRole, submissionID uint) (*SubmissionResult, error)
	ListByAssignment(ctx context.Context, teacherID, assignmentID uint) ([]*SubmissionResult, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*SubmissionResult, error)
	GradeSubjective(ctx context.Context, teacherID uint, req *validator.GradeSubjectiveRequest) (*SubmissionResult, error)
	Reopen(ctx context.Context, teacherID, submissionID uint) error
}

type AnalyticsService interface {
	StudentTrend(ctx context.Context, studentID uint) (*TrendReport, error)
	AssignmentStatistics(ctx context.Context, assignmentID uint) (*AssignmentStatistics, error)
	ClassSummary(ctx context.Context, teacherID uint) (*ClassSummary, error)
}

type ReportService interface {
	// ExportClassSummary renders a teacher's class summary as an xlsx workbook.
	ExportClassSummary(ctx context.Context, teacherID uint) ([]byte, error)
}

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, string, error)
	AuthenticateStudent(ctx context.Context, name, loginCode string) (*models.User, string, error)
	ParseToken(token string) (*TokenClaims, error)
	AddStudent(ctx context.Context, teacherID uint, req *validator.AddStudentRequest) (*models.User, error)
	ListStudents(ctx context.Context, teacherID uint) ([]*models.User, error)
	DeactivateStudent(ctx context.Context, teacherID, studentID uint) error
}
