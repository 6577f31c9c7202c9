package validator

import (
	"time"

	"github.com/smart-grading/grading-service/internal/models"
)

// AssignmentCreateRequest represents the request structure for creating assignments
type AssignmentCreateRequest struct {
	Title       string                  `json:"title" validate:"required,min=1,max=200"`
	Description string                  `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time              `json:"due_date" validate:"omitempty"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionCreateRequest represents one question of an assignment being created
type QuestionCreateRequest struct {
	Kind          models.QuestionKind `json:"kind" validate:"required,question_kind"`
	Prompt        string              `json:"prompt" validate:"required,min=1,max=2000"`
	Choices       []ChoiceRequest     `json:"choices" validate:"omitempty,max=10,dive"`
	CorrectAnswer string              `json:"correct_answer" validate:"omitempty,max=255"`
	Points        int                 `json:"points" validate:"required,points_range"`
}

type ChoiceRequest struct {
	Label string `json:"label" validate:"required,max=32"`
	Text  string `json:"text" validate:"required,max=500"`
}

// SubmitRequest represents a student's complete answer set for an assignment
type SubmitRequest struct {
	AssignmentID uint            `json:"assignment_id" validate:"required"`
	Answers      map[uint]string `json:"answers"`
}

// GradeSubjectiveRequest represents a teacher grading one subjective answer
type GradeSubjectiveRequest struct {
	SubmissionID  uint    `json:"submission_id" validate:"required"`
	QuestionID    uint    `json:"question_id" validate:"required"`
	AwardedPoints float64 `json:"awarded_points" validate:"min=0"`
	Feedback      *string `json:"feedback" validate:"omitempty,max=2000"`
}

// TeacherLoginRequest is the username/password credential pair for teachers
type TeacherLoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=255"`
}

// StudentLoginRequest is the name + login code credential pair for students
type StudentLoginRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	LoginCode string `json:"login_code" validate:"required,len=6"`
}

// AddStudentRequest provisions a new student account under a teacher
type AddStudentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}
