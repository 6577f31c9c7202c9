package repositories

import (
	"context"
	"time"

	"github.com/smart-grading/grading-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssignmentFilters struct {
	TeacherID       *uint `json:"teacher_id"`
	IncludeInactive bool  `json:"include_inactive"`
	Limit           int   `json:"limit"`
	Offset          int   `json:"offset"`
}

type SubmissionFilters struct {
	AssignmentID *uint                 `json:"assignment_id"`
	StudentID    *uint                 `json:"student_id"`
	Status       *models.GradingStatus `json:"status"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// SubmissionScore is the scoring slice of one submission used by analytics.
type SubmissionScore struct {
	SubmissionID uint    `json:"submission_id"`
	StudentID    uint    `json:"student_id"`
	Score        float64 `json:"score"`
	MaxScore     int     `json:"max_score"`
}

// QuestionCorrectRate is the per-question correctness aggregate of an assignment.
type QuestionCorrectRate struct {
	QuestionID  uint    `json:"question_id"`
	Position    int     `json:"position"`
	Answered    int     `json:"answered"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}

// TrendPoint is one submission of a student's performance history.
type TrendPoint struct {
	AssignmentID uint      `json:"assignment_id"`
	Title        string    `json:"title"`
	Score        float64   `json:"score"`
	MaxScore     int       `json:"max_score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ===== SUB-REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetStudentByNameAndCode(ctx context.Context, name, loginCode string) (*models.User, error)
	GetStudentsByTeacher(ctx context.Context, teacherID uint) ([]*models.User, error)
	LoginCodeExists(ctx context.Context, code string) (bool, error)
	Deactivate(ctx context.Context, id uint) error
}

type AssignmentRepository interface {
	// Create persists the assignment together with its questions.
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error)
	List(ctx context.Context, filters AssignmentFilters) ([]*models.Assignment, int64, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Deactivate(ctx context.Context, id uint) error
	// HasSubmissions reports whether any submission references the assignment.
	HasSubmissions(ctx context.Context, id uint) (bool, error)
}

type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Question, error)
	CreateBatch(ctx context.Context, questions []*models.Question) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.Submission, error)
	GetByStudent(ctx context.Context, studentID uint, filters SubmissionFilters) ([]*models.Submission, error)
	GetByAssignment(ctx context.Context, assignmentID uint, filters SubmissionFilters) ([]*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
	GetBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error)
	// DeleteBySubmission clears a reopened submission's answers before
	// resubmission replaces them.
	DeleteBySubmission(ctx context.Context, submissionID uint) error
}

type AnalyticsRepository interface {
	// SubmissionScores returns the scores of gradable submissions
	// (status != reopened) for one assignment.
	SubmissionScores(ctx context.Context, assignmentID uint) ([]SubmissionScore, error)
	// QuestionCorrectRates aggregates objective answer correctness per
	// question across all gradable submissions of one assignment.
	QuestionCorrectRates(ctx context.Context, assignmentID uint) ([]QuestionCorrectRate, error)
	// StudentTrend returns one point per gradable submission of the
	// student, ordered by submission time ascending.
	StudentTrend(ctx context.Context, studentID uint) ([]TrendPoint, error)
}
