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

type AssignmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	invalidate   invalidateFunc
}

func NewAssignmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, invalidate invalidateFunc) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
		invalidate:   invalidate,
	}
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, assignment *models.Assignment) error {
	// Questions are persisted through the association in the same insert.
	if err := a.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	assignmentID, teacherID := assignment.ID, assignment.TeacherID
	a.invalidate(ctx, func(ctx context.Context) {
		cache.InvalidateAssignmentCache(ctx, a.cacheManager, assignmentID, teacherID)
	})
	return nil
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var assignment models.Assignment

	err := a.cacheManager.Assignment.CacheOrExecute(ctx, cacheKey, &assignment, cache.AssignmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssignment models.Assignment
		if err := a.db.WithContext(ctx).Preload("Teacher").First(&dbAssignment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("assignment %d: %w", id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get assignment: %w", err)
		}
		return &dbAssignment, nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, id")
		}).
		First(&assignment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get assignment with questions: %w", err)
	}
	assignment.QuestionCount = len(assignment.Questions)
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	var assignments []*models.Assignment
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Assignment{})
	if !filters.IncludeInactive {
		query = query.Where("is_active = true")
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	// Summaries only: newest first, no question bodies.
	if err := query.Preload("Teacher").Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}

	for _, assignment := range assignments {
		assignment.TeacherName = assignment.Teacher.Name
	}
	return assignments, total, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, assignment *models.Assignment) error {
	if err := a.db.WithContext(ctx).Save(assignment).Error; err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	assignmentID, teacherID := assignment.ID, assignment.TeacherID
	a.invalidate(ctx, func(ctx context.Context) {
		cache.InvalidateAssignmentCache(ctx, a.cacheManager, assignmentID, teacherID)
	})
	return nil
}

func (a *AssignmentPostgreSQL) Deactivate(ctx context.Context, id uint) error {
	result := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("assignment %d: %w", id, repositories.ErrNotFound)
	}

	a.invalidate(ctx, func(ctx context.Context) {
		cache.SafeDelete(ctx, a.cacheManager.Assignment, fmt.Sprintf("id:%d", id))
		cache.SafeInvalidatePattern(ctx, a.cacheManager.Assignment, "list:*")
	})
	return nil
}

func (a *AssignmentPostgreSQL) HasSubmissions(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count > 0, nil
}
