package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("position, id").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := q.db.WithContext(ctx).Create(questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}
