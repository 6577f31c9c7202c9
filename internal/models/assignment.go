package models

import (
	"time"
)

type Assignment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TeacherID   uint       `json:"teacher_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string     `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	TotalPoints int        `json:"total_points" gorm:"not null;default:0"`
	DueDate     *time.Time `json:"due_date"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:AssignmentID"`
	Teacher   User       `json:"teacher" gorm:"foreignKey:TeacherID"`

	// Computed fields (not stored)
	QuestionCount   int    `json:"question_count" gorm:"-"`
	SubmissionCount int    `json:"submission_count" gorm:"-"`
	TeacherName     string `json:"teacher_name,omitempty" gorm:"-"`
}

func (Assignment) TableName() string {
	return "assignments"
}
