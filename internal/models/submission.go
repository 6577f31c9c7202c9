package models

import (
	"time"
)

type GradingStatus string

const (
	// StatusFullyGraded means every answer, objective and subjective, has
	// a final score. Assignments without subjective questions reach this
	// state immediately on submit.
	StatusFullyGraded GradingStatus = "fully_graded"
	// StatusPendingManual means objective answers are scored but at least
	// one subjective answer awaits a teacher grade.
	StatusPendingManual GradingStatus = "pending_manual"
	// StatusReopened marks a submission a teacher has explicitly reopened
	// for resubmission. Only a reopened submission may be replaced.
	StatusReopened GradingStatus = "reopened"
)

type Submission struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssignmentID uint `json:"assignment_id" gorm:"not null;index;uniqueIndex:idx_assignment_student"`
	StudentID    uint `json:"student_id" gorm:"not null;index;uniqueIndex:idx_assignment_student"`

	SubmittedAt time.Time     `json:"submitted_at"`
	TotalScore  float64       `json:"total_score" gorm:"not null;default:0"`
	MaxScore    int           `json:"max_score" gorm:"not null;default:0"`
	Status      GradingStatus `json:"status" gorm:"not null;index"`

	// Audit trail for explicit teacher reopening.
	SubmissionCount int        `json:"submission_count" gorm:"not null;default:1"`
	ReopenedAt      *time.Time `json:"reopened_at,omitempty"`
	ReopenedBy      *uint      `json:"reopened_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment Assignment `json:"assignment" gorm:"foreignKey:AssignmentID"`
	Student    User       `json:"student" gorm:"foreignKey:StudentID"`
	Answers    []Answer   `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

type Answer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SubmissionID uint `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint `json:"question_id" gorm:"not null;index"`

	Response string `json:"response" gorm:"type:text"`

	// Grading. IsCorrect stays nil for subjective answers until a teacher
	// grades them.
	IsCorrect     *bool   `json:"is_correct"`
	AwardedPoints float64 `json:"awarded_points" gorm:"not null;default:0"`
	Feedback      *string `json:"feedback" gorm:"type:text"`

	GradedBy *uint      `json:"graded_by,omitempty"`
	GradedAt *time.Time `json:"graded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}
