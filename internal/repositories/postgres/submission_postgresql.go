package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smart-grading/grading-service/internal/cache"
	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	invalidate   invalidateFunc
}

func NewSubmissionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, invalidate invalidateFunc) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
		invalidate:   invalidate,
	}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("submission for assignment %d by student %d: %w",
				submission.AssignmentID, submission.StudentID, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	submissionID, assignmentID, studentID := submission.ID, submission.AssignmentID, submission.StudentID
	s.invalidate(ctx, func(ctx context.Context) {
		cache.InvalidateSubmissionCache(ctx, s.cacheManager, submissionID, assignmentID, studentID)
	})
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Student").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Preload("Answers.Question").
		First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get submission with answers: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission for assignment %d by student %d: %w",
				assignmentID, studentID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByStudent(ctx context.Context, studentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, error) {
	filters.StudentID = &studentID
	return s.list(ctx, filters, "submitted_at ASC")
}

func (s *SubmissionPostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, error) {
	filters.AssignmentID = &assignmentID
	return s.list(ctx, filters, "submitted_at DESC")
}

func (s *SubmissionPostgreSQL) list(ctx context.Context, filters repositories.SubmissionFilters, order string) ([]*models.Submission, error) {
	var submissions []*models.Submission

	query := s.db.WithContext(ctx).Model(&models.Submission{})
	if filters.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filters.AssignmentID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Assignment").Order(order).Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	if err := s.db.WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	submissionID, assignmentID, studentID := submission.ID, submission.AssignmentID, submission.StudentID
	s.invalidate(ctx, func(ctx context.Context) {
		cache.InvalidateSubmissionCache(ctx, s.cacheManager, submissionID, assignmentID, studentID)
	})
	return nil
}

// ===== ANSWERS =====

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	invalidate   invalidateFunc
}

func NewAnswerPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, invalidate invalidateFunc) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
		invalidate:   invalidate,
	}
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := a.db.WithContext(ctx).Create(answers).Error; err != nil {
		return fmt.Errorf("failed to create answers: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, answer *models.Answer) error {
	if err := a.db.WithContext(ctx).Save(answer).Error; err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}

	submissionID := answer.SubmissionID
	a.invalidate(ctx, func(ctx context.Context) {
		cache.SafeDelete(ctx, a.cacheManager.Fast, fmt.Sprintf("submission:%d:answers", submissionID))
	})
	return nil
}

func (a *AnswerPostgreSQL) GetBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := a.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Preload("Question").
		Order("id").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission answers: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	err := a.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.Answer{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete submission answers: %w", err)
	}

	a.invalidate(ctx, func(ctx context.Context) {
		cache.SafeDelete(ctx, a.cacheManager.Fast, fmt.Sprintf("submission:%d:answers", submissionID))
	})
	return nil
}
