package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	TrueFalse      QuestionKind = "true_false"
	Subjective     QuestionKind = "subjective"
)

// IsObjective reports whether answers of this kind are scored automatically.
func (k QuestionKind) IsObjective() bool {
	return k == MultipleChoice || k == TrueFalse
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssignmentID uint         `json:"assignment_id" gorm:"not null;index"`
	Kind         QuestionKind `json:"kind" gorm:"not null;index" validate:"required,oneof=multiple_choice true_false subjective"`
	Prompt       string       `json:"prompt" gorm:"type:text;not null" validate:"required"`

	// Choice set stored as JSONB ([]Choice). Empty for subjective questions.
	Choices datatypes.JSON `json:"choices" gorm:"column:choices_json;type:jsonb"`

	// Label of the correct choice for objective questions; empty for subjective.
	// Never serialized directly: the key reaches clients only through the
	// teacher view in handlers.
	CorrectAnswer string `json:"-" gorm:"size:255"`

	Points   int `json:"points" gorm:"not null" validate:"required,min=1"`
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Choice is one selectable option of an objective question. Label is what a
// student submits as a response ("A", "B", ... or "true"/"false").
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// TrueFalseChoices is the canonical two-value choice set for true_false questions.
var TrueFalseChoices = []Choice{
	{Label: "true", Text: "True"},
	{Label: "false", Text: "False"},
}

// ChoiceList decodes the stored JSONB choice set.
func (q *Question) ChoiceList() ([]Choice, error) {
	if len(q.Choices) == 0 {
		return nil, nil
	}
	var choices []Choice
	if err := json.Unmarshal(q.Choices, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}
