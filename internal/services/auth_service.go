package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-grading/grading-service/internal/models"
	"github.com/smart-grading/grading-service/internal/repositories"
	"github.com/smart-grading/grading-service/internal/validator"
)

// Login codes avoid ambiguous characters (0/O, 1/I).
const loginCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const loginCodeLength = 6

// ===== AUTH SERVICE =====

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: v,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Authenticate checks a teacher's username/password pair and issues a token.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.repo.User().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || user.PasswordHash == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "User authenticated", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// AuthenticateStudent checks a student's name + login code pair.
func (s *authService) AuthenticateStudent(ctx context.Context, name, loginCode string) (*models.User, string, error) {
	user, err := s.repo.User().GetStudentByNameAndCode(ctx, strings.TrimSpace(name), strings.TrimSpace(loginCode))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up student: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "Student authenticated", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": string(user.Role),
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and extracts its identity claims.
func (s *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID == 0 {
		return nil, ErrInvalidCredentials
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)

	return &TokenClaims{
		UserID: userID,
		Role:   models.UserRole(role),
		Name:   name,
	}, nil
}

// AddStudent provisions a student account with a generated login code.
func (s *authService) AddStudent(ctx context.Context, teacherID uint, req *validator.AddStudentRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	code, err := s.generateLoginCode(ctx)
	if err != nil {
		return nil, err
	}

	student := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Role:      models.RoleStudent,
		LoginCode: &code,
		CreatedBy: &teacherID,
		IsActive:  true,
	}
	if err := s.repo.User().Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.InfoContext(ctx, "Student added", "student_id", student.ID, "teacher_id", teacherID)
	return student, nil
}

func (s *authService) ListStudents(ctx context.Context, teacherID uint) ([]*models.User, error) {
	return s.repo.User().GetStudentsByTeacher(ctx, teacherID)
}

func (s *authService) DeactivateStudent(ctx context.Context, teacherID, studentID uint) error {
	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return err
	}
	if !student.IsStudent() {
		return NewValidationError("student_id", "user is not a student")
	}
	if student.CreatedBy == nil || *student.CreatedBy != teacherID {
		return NewPermissionError("only the provisioning teacher can deactivate a student")
	}
	return s.repo.User().Deactivate(ctx, studentID)
}

// generateLoginCode draws random codes until one is unused.
func (s *authService) generateLoginCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomCode(loginCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.repo.User().LoginCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique login code")
}

func randomCode(length int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(loginCodeCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b.WriteByte(loginCodeCharset[n.Int64()])
	}
	return b.String(), nil
}
