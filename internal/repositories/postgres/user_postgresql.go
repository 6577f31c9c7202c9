package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %q: %w", user.Name, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("username = ? AND is_active = true", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetStudentByNameAndCode(ctx context.Context, name, loginCode string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND login_code = ? AND role = ? AND is_active = true",
			strings.TrimSpace(name), strings.ToUpper(loginCode), models.RoleStudent).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %q: %w", name, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get student by login code: %w", err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetStudentsByTeacher(ctx context.Context, teacherID uint) ([]*models.User, error) {
	var students []*models.User
	err := u.db.WithContext(ctx).
		Where("created_by = ? AND role = ?", teacherID, models.RoleStudent).
		Order("name").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	return students, nil
}

func (u *UserPostgreSQL) LoginCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("login_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check login code: %w", err)
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) Deactivate(ctx context.Context, id uint) error {
	result := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}
