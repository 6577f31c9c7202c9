package handlers

import (
	"time"

	"gorm.io/datatypes"

	"github.com/smart-grading/grading-service/internal/models"
)

// QuestionView is the wire form of a question. The correct answer is filled
// only for the teacher view; students see choices without the key.
type QuestionView struct {
	ID            uint                `json:"id"`
	Kind          models.QuestionKind `json:"kind"`
	Prompt        string              `json:"prompt"`
	Choices       datatypes.JSON      `json:"choices,omitempty"`
	CorrectAnswer string              `json:"correct_answer,omitempty"`
	Points        int                 `json:"points"`
	Position      int                 `json:"position"`
}

type AssignmentView struct {
	ID          uint       `json:"id"`
	TeacherID   uint       `json:"teacher_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TotalPoints int        `json:"total_points"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Questions   []QuestionView `json:"questions,omitempty"`
	TeacherName string         `json:"teacher_name,omitempty"`
}

// newAssignmentView maps an assignment onto its wire form. includeKey selects
// the teacher view, which carries each objective question's correct answer.
func newAssignmentView(assignment *models.Assignment, includeKey bool) *AssignmentView {
	view := &AssignmentView{
		ID:          assignment.ID,
		TeacherID:   assignment.TeacherID,
		Title:       assignment.Title,
		Description: assignment.Description,
		TotalPoints: assignment.TotalPoints,
		DueDate:     assignment.DueDate,
		IsActive:    assignment.IsActive,
		CreatedAt:   assignment.CreatedAt,
		UpdatedAt:   assignment.UpdatedAt,
		TeacherName: assignment.TeacherName,
	}
	if view.TeacherName == "" && assignment.Teacher.Name != "" {
		view.TeacherName = assignment.Teacher.Name
	}

	for _, q := range assignment.Questions {
		qv := QuestionView{
			ID:       q.ID,
			Kind:     q.Kind,
			Prompt:   q.Prompt,
			Choices:  q.Choices,
			Points:   q.Points,
			Position: q.Position,
		}
		if includeKey {
			qv.CorrectAnswer = q.CorrectAnswer
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}
